package farm

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
)

// Stop gracefully stops and removes the farm container. The toolchain
// volume and the auth material in the data dir survive, so the next
// Start hands out the same tokens.
func (m *Manager) Stop(ctx context.Context) error {
	c, err := m.findContainer(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		m.log.Info("farm not present", "container", m.cfg.Container)
		fmt.Fprintf(m.out, "%s is not running\n", m.cfg.Container)
		return nil
	}

	timeout := m.cfg.StopTimeoutSeconds()
	if c.State == "running" {
		if err := m.cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout}); err != nil {
			return fmt.Errorf("stop container: %w", err)
		}
	}
	if err := m.cli.ContainerRemove(ctx, c.ID, types.ContainerRemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("remove container: %w", err)
	}
	m.log.Info("farm stopped", "container", m.cfg.Container)
	fmt.Fprintf(m.out, "%s stopped\n", m.cfg.Container)
	return nil
}
