package farm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"github.com/distfarm/distfarm/pkg/sccache"
)

const (
	schedulerConfFile = "scheduler.conf"
	serverConfFile    = "server.conf"
)

// Start brings the farm container up. Auth material and the sccache
// configs are regenerated under the data dir on every start, so config
// changes take effect while tokens stay stable. A running farm is left
// alone; a stopped one is replaced.
func (m *Manager) Start(ctx context.Context) error {
	existing, err := m.findContainer(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.State == "running" {
			m.log.Info("farm already running", "container", m.cfg.Container)
			fmt.Fprintf(m.out, "%s is already running\n", m.cfg.Container)
			return nil
		}
		m.log.Info("removing stopped farm container", "container", m.cfg.Container, "state", existing.State)
		if err := m.cli.ContainerRemove(ctx, existing.ID, types.ContainerRemoveOptions{Force: true}); err != nil {
			return fmt.Errorf("remove stale container: %w", err)
		}
	}

	if _, _, err := m.cli.ImageInspectWithRaw(ctx, m.cfg.Image); err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("image %s not found, run 'distfarm build' first", m.cfg.Image)
		}
		return fmt.Errorf("inspect image: %w", err)
	}

	material, err := sccache.EnsureMaterial(m.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("auth material: %w", err)
	}
	if err := m.writeFarmConfigs(material); err != nil {
		return err
	}

	schedulerPort, err := nat.NewPort("tcp", strconv.Itoa(m.cfg.SchedulerPort))
	if err != nil {
		return err
	}
	builderPort, err := nat.NewPort("tcp", strconv.Itoa(m.cfg.BuilderPort))
	if err != nil {
		return err
	}

	created, err := m.cli.ContainerCreate(ctx,
		&container.Config{
			Image: m.cfg.Image,
			ExposedPorts: nat.PortSet{
				schedulerPort: struct{}{},
				builderPort:   struct{}{},
			},
		},
		&container.HostConfig{
			Binds: []string{
				filepath.Join(m.cfg.DataDir, schedulerConfFile) + ":/etc/sccache/scheduler.conf:ro",
				filepath.Join(m.cfg.DataDir, serverConfFile) + ":/etc/sccache/server.conf:ro",
				sccache.TokenPath(m.cfg.DataDir) + ":" + tokenMountPath + ":ro",
				m.cfg.Container + "-toolchains:" + m.cfg.ToolchainDir,
			},
			PortBindings: nat.PortMap{
				schedulerPort: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(m.cfg.SchedulerPort)}},
				builderPort:   []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(m.cfg.BuilderPort)}},
			},
			RestartPolicy: container.RestartPolicy{Name: "unless-stopped"},
			Privileged:    m.cfg.Privileged,
		},
		&network.NetworkingConfig{}, nil, m.cfg.Container)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	if err := m.cli.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}

	m.log.Info("farm started",
		"container", m.cfg.Container,
		"scheduler", m.cfg.SchedulerURL(),
		"builder", fmt.Sprintf("%s:%d", m.cfg.PublicAddr, m.cfg.BuilderPort))
	fmt.Fprintf(m.out, "%s started (scheduler %s)\n", m.cfg.Container, m.cfg.SchedulerURL())
	return nil
}

// writeFarmConfigs renders scheduler.conf and server.conf into the
// data dir, where Start bind-mounts them from.
func (m *Manager) writeFarmConfigs(material *sccache.Material) error {
	scheduler := sccache.NewSchedulerConfig(m.cfg.SchedulerPort, material)
	server, err := sccache.NewServerConfig(sccache.ServerParams{
		PublicAddr:    m.cfg.PublicAddr,
		BuilderPort:   m.cfg.BuilderPort,
		SchedulerPort: m.cfg.SchedulerPort,
		ToolchainDir:  m.cfg.ToolchainDir,
		BuildDir:      m.cfg.BuildDir,
		CacheSize:     m.cfg.CacheSizeBytes(),
	}, material)
	if err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	schedulerData, err := scheduler.Render()
	if err != nil {
		return fmt.Errorf("render scheduler config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.cfg.DataDir, schedulerConfFile), schedulerData, 0o600); err != nil {
		return fmt.Errorf("write scheduler config: %w", err)
	}
	serverData, err := server.Render()
	if err != nil {
		return fmt.Errorf("render server config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.cfg.DataDir, serverConfFile), serverData, 0o600); err != nil {
		return fmt.Errorf("write server config: %w", err)
	}
	return nil
}
