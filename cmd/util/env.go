package util

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads external tool locations from a dotenv file into the
// environment. With an empty path, ".env" is loaded when present and
// silently skipped otherwise; an explicitly named file must load.
func LoadEnv(fpath string) {
	if len(fpath) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		Assert(godotenv.Load(), "Could not load '.env'")
		return
	}
	Assert(godotenv.Load(fpath), "Could not load '%s'", fpath)
}

// Env returns the value of an environment variable, or def when it is
// unset or empty.
func Env(key, def string) string {
	if v := os.Getenv(key); len(v) > 0 {
		return v
	}
	return def
}
