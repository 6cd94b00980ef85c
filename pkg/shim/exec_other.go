//go:build !unix

package shim

import (
	"errors"
	"os"
	"os/exec"
)

// replaceProcess has no exec primitive to lean on here, so it spawns the
// command with inherited stdio, waits, and exits with the child's code.
// Observably equivalent to replacement except for process identity. It
// returns only when the command could not be launched.
func replaceProcess(command []string) error {
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		os.Exit(0)
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		os.Exit(exit.ExitCode())
	}
	return err
}
