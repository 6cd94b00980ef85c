// Package farm drives the sccache-dist farm container through the
// docker Engine API: building the image, creating the container with
// its generated configs and auth material, and inspecting it.
package farm

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/distfarm/distfarm/pkg/config"
)

// tokenMountPath is where the client auth token lives inside the
// container. Clients read it with docker exec.
const tokenMountPath = "/root/.sccache_dist_token"

// APIClient is the slice of the docker Engine API the manager uses.
type APIClient interface {
	ServerVersion(ctx context.Context) (types.Version, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	ContainerList(ctx context.Context, options types.ContainerListOptions) ([]types.Container, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error
	ContainerLogs(ctx context.Context, containerID string, options types.ContainerLogsOptions) (io.ReadCloser, error)
	ContainerExecCreate(ctx context.Context, containerID string, config types.ExecConfig) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config types.ExecStartCheck) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (types.ContainerExecInspect, error)
}

var _ APIClient = (*client.Client)(nil)

// Manager operates one farm container.
type Manager struct {
	cli APIClient
	cfg *config.Config
	log *slog.Logger
	out io.Writer
}

// New returns a Manager. out receives user-facing output such as build
// progress and status text.
func New(cli APIClient, cfg *config.Config, log *slog.Logger, out io.Writer) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	return &Manager{cli: cli, cfg: cfg, log: log, out: out}
}

// ContainerName returns the managed container's name.
func (m *Manager) ContainerName() string {
	return m.cfg.Container
}

// findContainer returns the farm container or nil when absent.
func (m *Manager) findContainer(ctx context.Context) (*types.Container, error) {
	// The name filter is a regexp; anchor it so farm-a does not match
	// farm-ab, and re-check because old daemons substring-match.
	list, err := m.cli.ContainerList(ctx, types.ContainerListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", "^/"+m.cfg.Container+"$")),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	for i := range list {
		for _, name := range list[i].Names {
			if name == "/"+m.cfg.Container {
				return &list[i], nil
			}
		}
	}
	return nil, nil
}

// IsRunning reports whether the farm container is up.
func (m *Manager) IsRunning(ctx context.Context) (bool, error) {
	c, err := m.findContainer(ctx)
	if err != nil || c == nil {
		return false, err
	}
	return c.State == "running", nil
}

// RuntimeVersion describes the docker daemon, or errors when it is not
// reachable.
func (m *Manager) RuntimeVersion(ctx context.Context) (string, error) {
	v, err := m.cli.ServerVersion(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Docker %s (API %s)", v.Version, v.APIVersion), nil
}
