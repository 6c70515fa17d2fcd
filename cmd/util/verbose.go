package util

import (
	"fmt"
	"os"
)

// Verbosef writes to stderr when the verbose flag is set. No newline is
// appended, so progress lines can rewrite themselves with '\r'.
func Verbosef(format string, v ...interface{}) {
	if FlagVerbose {
		fmt.Fprintf(os.Stderr, format, v...)
	}
}
