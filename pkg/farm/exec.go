package farm

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/stdcopy"
)

// ExecOutput runs cmd inside the farm container and returns its
// combined output and exit code.
func (m *Manager) ExecOutput(ctx context.Context, cmd []string) (string, int, error) {
	c, err := m.findContainer(ctx)
	if err != nil {
		return "", 0, err
	}
	if c == nil {
		return "", 0, fmt.Errorf("container %s not found", m.cfg.Container)
	}

	created, err := m.cli.ContainerExecCreate(ctx, c.ID, types.ExecConfig{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", 0, fmt.Errorf("create exec: %w", err)
	}
	resp, err := m.cli.ContainerExecAttach(ctx, created.ID, types.ExecStartCheck{})
	if err != nil {
		return "", 0, fmt.Errorf("attach exec: %w", err)
	}
	defer resp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, resp.Reader); err != nil {
		return "", 0, fmt.Errorf("read exec output: %w", err)
	}
	inspect, err := m.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return "", 0, fmt.Errorf("inspect exec: %w", err)
	}

	out := stdout.String()
	if stderr.Len() > 0 {
		out = out + stderr.String()
	}
	return strings.TrimSpace(out), inspect.ExitCode, nil
}

// Token reads the client auth token from inside the running container.
func (m *Manager) Token(ctx context.Context) (string, error) {
	out, code, err := m.ExecOutput(ctx, []string{"cat", tokenMountPath})
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("read token: %s", out)
	}
	return out, nil
}
