package farm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// fakeClient implements APIClient in memory and records what the
// manager asked for.
type fakeClient struct {
	containers  []types.Container
	imageExists bool

	buildOptions types.ImageBuildOptions
	buildStream  string

	createdConfig *container.Config
	createdHost   *container.HostConfig
	createdName   string

	started []string
	stopped []string
	removed []string

	stopTimeout *int

	execCmd  []string
	execOut  []byte
	execExit int

	logsOptions types.ContainerLogsOptions
	logStream   []byte
}

func (f *fakeClient) ServerVersion(ctx context.Context) (types.Version, error) {
	return types.Version{Version: "24.0.9", APIVersion: "1.43"}, nil
}

func (f *fakeClient) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	// Drain the tar stream the way the daemon would.
	if _, err := io.Copy(io.Discard, buildContext); err != nil {
		return types.ImageBuildResponse{}, err
	}
	f.buildOptions = options
	return types.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(f.buildStream))}, nil
}

func (f *fakeClient) ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error) {
	if !f.imageExists {
		return types.ImageInspect{}, nil, errdefs.NotFound(errors.New("no such image: " + imageID))
	}
	return types.ImageInspect{ID: "sha256:abc"}, nil, nil
}

func (f *fakeClient) ContainerList(ctx context.Context, options types.ContainerListOptions) ([]types.Container, error) {
	return f.containers, nil
}

func (f *fakeClient) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	f.createdConfig = config
	f.createdHost = hostConfig
	f.createdName = containerName
	return container.CreateResponse{ID: "new-container-id"}, nil
}

func (f *fakeClient) ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error {
	f.started = append(f.started, containerID)
	return nil
}

func (f *fakeClient) ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error {
	f.stopped = append(f.stopped, containerID)
	f.stopTimeout = options.Timeout
	return nil
}

func (f *fakeClient) ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error {
	f.removed = append(f.removed, containerID)
	return nil
}

func (f *fakeClient) ContainerLogs(ctx context.Context, containerID string, options types.ContainerLogsOptions) (io.ReadCloser, error) {
	f.logsOptions = options
	return io.NopCloser(bytes.NewReader(f.logStream)), nil
}

func (f *fakeClient) ContainerExecCreate(ctx context.Context, containerID string, config types.ExecConfig) (types.IDResponse, error) {
	f.execCmd = config.Cmd
	return types.IDResponse{ID: "exec-id"}, nil
}

func (f *fakeClient) ContainerExecAttach(ctx context.Context, execID string, config types.ExecStartCheck) (types.HijackedResponse, error) {
	server, client := net.Pipe()
	server.Close()
	return types.HijackedResponse{
		Conn:   client,
		Reader: bufioReader(f.execOut),
	}, nil
}

func (f *fakeClient) ContainerExecInspect(ctx context.Context, execID string) (types.ContainerExecInspect, error) {
	return types.ContainerExecInspect{ExitCode: f.execExit}, nil
}

var _ APIClient = (*fakeClient)(nil)

func bufioReader(b []byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(b))
}

// muxStream builds an engine-multiplexed stream the way the daemon
// frames non-tty output.
func muxStream(stdout, stderr string) []byte {
	var buf bytes.Buffer
	if stdout != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(stdout))
	}
	if stderr != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(stderr))
	}
	return buf.Bytes()
}
