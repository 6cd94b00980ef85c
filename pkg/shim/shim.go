// Package shim implements a bubblewrap-compatible argument filter. The farm
// image installs it as /usr/bin/bwrap: sandbox flags are discarded and the
// trailing command runs directly in the caller's place, unsandboxed. The
// wrapped build tool only ever probes `bwrap --version` and then trusts the
// flags it passes, so a recognizable version line and correct flag arities
// are all it takes to stand in for the real thing inside a container.
package shim

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// bwrapVersion is the fabricated line answered to a version probe. The
// caller refuses to use a bubblewrap older than 0.3.0.
const bwrapVersion = "bubblewrap 0.11.0"

// Strip scans argv left to right, discards every sandbox option together
// with the arguments it consumes, and returns the command that remains.
// A bare "--" ends option parsing; so does the first token that neither is
// an option nor looks like one. Options that look truncated at the end of
// argv are consumed without error. Unrecognized "--" tokens are assumed to
// take no arguments, which misreads any unknown option that does; the real
// bubblewrap rejects unknown options outright, so nothing valid is lost.
func Strip(argv []string) []string {
	i := 0
	for i < len(argv) {
		tok := argv[i]
		if tok == "--" {
			return argv[i+1:]
		}
		if n, ok := optionArity[tok]; ok {
			// Overshooting len(argv) just terminates the scan.
			i += 1 + n
			continue
		}
		if strings.HasPrefix(tok, "--") {
			i++
			continue
		}
		return argv[i:]
	}
	return nil
}

// Run executes the forwarder against argv (the process arguments without
// the program name) and returns an exit code. When a command remains after
// stripping, Run hands the process over to it and does not return; it only
// returns for the version probe, for an empty command, or when the command
// could not be launched.
func Run(argv []string, stdout io.Writer) int {
	if len(argv) == 1 && argv[0] == "--version" {
		fmt.Fprintln(stdout, bwrapVersion)
		return 0
	}

	command := Strip(argv)
	if len(command) == 0 {
		return 0
	}

	err := replaceProcess(command)
	fmt.Fprintf(os.Stderr, "bwrap: %s: %v\n", command[0], err)
	if errors.Is(err, exec.ErrNotFound) {
		return 127
	}
	return 126
}
