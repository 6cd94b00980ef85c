package farm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/stdcopy"
)

// LogsOptions control what Logs streams.
type LogsOptions struct {
	Follow bool
	Tail   string
}

// Logs streams container logs, demultiplexing the engine stream onto
// stdout and stderr. With Follow set it runs until ctx is cancelled.
func (m *Manager) Logs(ctx context.Context, opts LogsOptions, stdout, stderr io.Writer) error {
	c, err := m.findContainer(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("container %s not found", m.cfg.Container)
	}

	tail := opts.Tail
	if tail == "" {
		tail = "all"
	}
	rd, err := m.cli.ContainerLogs(ctx, c.ID, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     opts.Follow,
		Tail:       tail,
	})
	if err != nil {
		return fmt.Errorf("container logs: %w", err)
	}
	defer rd.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, rd); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
