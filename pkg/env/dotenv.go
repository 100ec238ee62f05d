// Package env loads .env files into the process environment before the
// configuration file is read.
package env

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LoadFromDir loads dir/.env if it exists.
func LoadFromDir(dir string) error {
	return Load(filepath.Join(dir, ".env"))
}

// Load reads KEY=VALUE lines from path. Comments and blank lines are
// skipped, `export` prefixes and surrounding quotes are stripped, and
// variables already present in the environment win.
func Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, val, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return scanner.Err()
}

func parseLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	val = strings.Trim(strings.TrimSpace(val), `"'`)
	return key, val, true
}
