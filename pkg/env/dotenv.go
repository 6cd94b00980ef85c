// Package env applies .env files to the process environment. Client
// settings such as SCCACHE_DIST_TOKEN and SCCACHE_SCHEDULER_URL are
// commonly kept in a project-local .env, and the doctor checks read
// them from the environment.
package env

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ApplyDir applies dir/.env. See Apply.
func ApplyDir(dir string) (int, error) {
	return Apply(filepath.Join(dir, ".env"))
}

// Apply reads a dotenv file and sets every variable that is not already
// present in the environment. Existing variables always win. A missing
// file is not an error. It returns the number of variables set.
func Apply(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	applied := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, scanner.Err()
}
