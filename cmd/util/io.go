package util

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func ReadLines(r io.Reader) []string {
	buf := bufio.NewReader(r)
	lines := make([]string, 0)
	for {
		line, err := buf.ReadString('\n')
		if err != nil && err != io.EOF {
			Fatalf("Could not read line: %s.", err)
		}
		lines = append(lines, strings.TrimSpace(line))
		if err == io.EOF {
			break
		}
	}
	return lines
}

func CopyFile(src, dest string) {
	_, err := io.Copy(CreateFile(dest), OpenFile(src))
	Assert(err, "Could not copy '%s' to '%s'", src, dest)
}

func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RecursiveFiles returns every regular file under dir, in walk order.
func RecursiveFiles(dir string) []string {
	var files []string
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	Assert(err, "Could not walk '%s'", dir)
	return files
}

// Files returns the paths matched by pattern, or the files under it when
// pattern names a directory. Only files with one of the given extensions
// are kept; with no extensions, everything matches.
func Files(pattern string, exts ...string) []string {
	var paths []string
	if IsDir(pattern) {
		paths = RecursiveFiles(pattern)
	} else {
		matched, err := filepath.Glob(pattern)
		Assert(err, "Could not glob '%s'", pattern)
		paths = matched
	}
	if len(exts) == 0 {
		return paths
	}

	var kept []string
	for _, p := range paths {
		for _, ext := range exts {
			if strings.HasSuffix(p, ext) {
				kept = append(kept, p)
				break
			}
		}
	}
	return kept
}
