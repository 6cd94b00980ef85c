// Package doctor checks an sccache-dist client and farm setup end to
// end: the farm container and its contents, the local sccache
// installation, environment variables, the client config file and
// basic connectivity. The output is a sectioned PASS/FAIL report; the
// summary counts the environment, config and connectivity checks, and
// the exit status is zero only when all of those pass.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/distfarm/distfarm/pkg/config"
	"github.com/distfarm/distfarm/pkg/exec"
	"github.com/distfarm/distfarm/pkg/system"
)

// tokenPath is where the farm container keeps the client auth token.
const tokenPath = "/root/.sccache_dist_token"

// ContainerRuntime is the view of the farm container the doctor needs.
type ContainerRuntime interface {
	ContainerName() string
	IsRunning(ctx context.Context) (bool, error)
	ExecOutput(ctx context.Context, cmd []string) (string, int, error)
	RuntimeVersion(ctx context.Context) (string, error)
}

// CommandRunner runs local commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (*exec.Result, error)
}

// Doctor holds the collaborators for one diagnostic run. Farm must be
// set; everything else has a usable default.
type Doctor struct {
	Config *config.Config
	Farm   ContainerRuntime
	Runner CommandRunner
	Host   *system.Profile
	Dial   func(network, address string, timeout time.Duration) (net.Conn, error)
	Out    io.Writer
	Color  bool
}

// Run executes every check and returns the process exit code: 0 when
// all counted checks pass, 1 otherwise.
func (d *Doctor) Run(ctx context.Context) int {
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Runner == nil {
		d.Runner = &exec.Runner{Timeout: 10 * time.Second, MaxOutput: 1 << 20}
	}
	r := &report{out: d.Out, color: d.Color}

	r.section("Container-based Checks (Inside Docker)")
	running, err := d.Farm.IsRunning(ctx)
	name := fmt.Sprintf("Docker container '%s' is running", d.Farm.ContainerName())
	if err != nil {
		r.status(name, false, err.Error())
	} else {
		r.status(name, running)
	}
	if running {
		d.checkContainerToken(ctx, r)
		d.checkBubblewrap(ctx, r)
		d.checkToolchainDir(ctx, r)
	} else {
		r.printf("Skipping in-container checks because container is not running.\n")
	}

	r.section("Host")
	d.hostProfile(r)

	r.section("Checking local sccache-dist installation & processes")
	d.checkDistInstalled(ctx, r)
	d.checkDistProcesses(ctx, r)

	r.section("Checking sccache Distributed Setup outside container")
	d.checkDockerInstalled(ctx, r)

	r.section("Checking sccache --dist-status")
	r.printf("%s\n", d.sccacheOutput(ctx, "--dist-status"))

	r.section("Checking sccache --dist-auth")
	r.printf("%s\n", d.sccacheOutput(ctx, "--dist-auth"))

	r.section("Checking configs")
	d.containerConfigs(ctx, r)
	d.checkMaterialCoherence(r)

	r.section("Environment variables")
	d.envChecks(r)

	r.printf("\nsccache configs:\n")
	d.clientConfigChecks(r)

	r.section("Runtime checks")
	d.runtimeChecks(r)

	r.section("Summary")
	r.printf("Passed %d out of %d checks\n", r.passed, r.total)
	if r.passed == r.total {
		return 0
	}
	return 1
}
