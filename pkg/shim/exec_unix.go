//go:build unix

package shim

import (
	"os"
	"os/exec"
	"syscall"
)

// replaceProcess resolves command[0] in PATH and replaces the current
// process image with it, inheriting stdio and environment. It returns only
// when the replacement could not happen.
func replaceProcess(command []string) error {
	path, err := exec.LookPath(command[0])
	if err != nil {
		return err
	}
	return syscall.Exec(path, command, os.Environ())
}
