package doctor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/distfarm/distfarm/pkg/sccache"
	"github.com/distfarm/distfarm/pkg/system"
)

func (d *Doctor) containerToken(ctx context.Context) (string, error) {
	out, code, err := d.Farm.ExecOutput(ctx, []string{"cat", tokenPath})
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", fmt.Errorf("exit code %d: %s", code, out)
	}
	return strings.TrimSpace(out), nil
}

// checkContainerToken compares the token inside the container with the
// local environment and the local client config.
func (d *Doctor) checkContainerToken(ctx context.Context, r *report) {
	token, err := d.containerToken(ctx)
	if err != nil {
		r.status("Retrieve "+tokenPath+" from container", false, err.Error())
		return
	}
	r.status("Retrieve "+tokenPath+" from container", true, token)

	r.status("Container token matches local SCCACHE_DIST_TOKEN", token == os.Getenv("SCCACHE_DIST_TOKEN"))

	path := sccache.DefaultClientConfigPath()
	cfg, err := sccache.LoadClientConfig(path)
	if os.IsNotExist(err) {
		r.status("Local sccache config file NOT found for token check", false, path)
		return
	}
	if err != nil {
		r.status("Error reading local sccache config file for token check", false, err.Error())
		return
	}
	r.status("Container token matches sccache config token", cfg.Dist.Auth.Token == token)
}

func (d *Doctor) checkBubblewrap(ctx context.Context, r *report) {
	out, code, err := d.Farm.ExecOutput(ctx, []string{"bwrap", "--version"})
	if err != nil || code != 0 {
		detail := out
		if err != nil {
			detail = err.Error()
		}
		r.status("Bubblewrap is installed in container", false, detail)
		return
	}
	ver := strings.TrimPrefix(strings.TrimSpace(out), "bubblewrap ")
	r.status("Bubblewrap version >= 0.3.0 in container", versionAtLeast(ver, 0, 3, 0), strings.TrimSpace(out))
}

// versionAtLeast naively compares a dotted version string. Anything
// that does not parse compares as 0.0.0.
func versionAtLeast(v string, major, minor, patch int) bool {
	want := [3]int{major, minor, patch}
	var got [3]int
	for i, part := range strings.Split(v, ".") {
		if i >= len(got) {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			got = [3]int{}
			break
		}
		got[i] = n
	}
	for i := range want {
		if got[i] != want[i] {
			return got[i] > want[i]
		}
	}
	return true
}

func (d *Doctor) checkToolchainDir(ctx context.Context, r *report) {
	dir := "/tmp/toolchains"
	if d.Config != nil && d.Config.ToolchainDir != "" {
		dir = d.Config.ToolchainDir
	}
	out, code, err := d.Farm.ExecOutput(ctx, []string{"sh", "-c", fmt.Sprintf("test -w %s && echo OK || echo NO", dir)})
	if err != nil || code != 0 {
		detail := out
		if err != nil {
			detail = err.Error()
		}
		r.status("Toolchain cache directory is accessible inside container", false, detail)
		return
	}
	r.status("Toolchain cache directory is accessible inside container", strings.TrimSpace(out) == "OK")
}

// hostProfile prints where this run executes. The overlay line is
// informational: the builder needs overlayfs on the Docker host, which
// is usually this machine but not always.
func (d *Doctor) hostProfile(r *report) {
	p := d.Host
	if p == nil {
		p = system.Detect()
	}
	r.printf("* %s\n", p)
	if p.OS == "linux" {
		r.status("Kernel supports overlayfs", p.Overlay)
	}
	if p.WSL {
		r.printf("* WSL host: run the farm from Docker inside this distro, not the Windows side\n")
	}
}

func (d *Doctor) checkDistInstalled(ctx context.Context, r *report) {
	res, err := d.Runner.Run(ctx, "sccache-dist", "--version")
	r.status("sccache-dist is installed", err == nil && res.Code == 0)
}

func (d *Doctor) checkDistProcesses(ctx context.Context, r *report) {
	res, err := d.Runner.Run(ctx, "pgrep", "-f", "sccache-dist")
	if err != nil {
		r.status("sccache-dist processes are running", false, err.Error())
		return
	}
	r.status("sccache-dist processes are running", res.Code == 0)
}

func (d *Doctor) checkDockerInstalled(ctx context.Context, r *report) {
	v, err := d.Farm.RuntimeVersion(ctx)
	if err != nil {
		r.status("Docker is installed", false, err.Error())
		return
	}
	r.status("Docker is installed", true, v)
}

// sccacheOutput runs sccache with one flag and returns whatever it
// printed, or a description of why it could not run.
func (d *Doctor) sccacheOutput(ctx context.Context, flag string) string {
	res, err := d.Runner.Run(ctx, "sccache", flag)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "Timeout expired"
		}
		return fmt.Sprintf("Error running sccache %s: %v", flag, err)
	}
	return strings.TrimSpace(res.Output)
}

func (d *Doctor) containerConfigs(ctx context.Context, r *report) {
	r.printf("\n## Configs from docker container:\n")
	token, err := d.containerToken(ctx)
	if err != nil {
		r.printf("Failed to retrieve AUTH token from container: %v\n", err)
		return
	}
	r.printf("Container AUTH token: %s\n", token)
	r.printf("\nConsider adding the following to your .bashrc:\n")
	r.printf("export SCCACHE_DIST_TOKEN=\"$(docker exec %s cat %s)\"\n", d.Farm.ContainerName(), tokenPath)
	r.printf("export SCCACHE_DIST_TOKEN=\"${SCCACHE_DIST_TOKEN:-%s}\"\n", token)
}

// checkMaterialCoherence verifies, on hosts that carry farm data, that
// the generated server.conf still matches the stored signing key. It
// is silent when no farm data exists.
func (d *Doctor) checkMaterialCoherence(r *report) {
	if d.Config == nil || d.Config.DataDir == "" {
		return
	}
	confPath := filepath.Join(d.Config.DataDir, "server.conf")
	if _, err := os.Stat(confPath); err != nil {
		return
	}
	secret, err := os.ReadFile(sccache.SecretKeyPath(d.Config.DataDir))
	if err != nil {
		return
	}
	cfg, err := sccache.LoadServerConfig(confPath)
	if err != nil {
		r.status("Generated server.conf parses", false, err.Error())
		return
	}
	addr, err := sccache.VerifyServerToken(strings.TrimSpace(string(secret)), cfg.SchedulerAuth.Token)
	if err != nil {
		r.status("server.conf auth token verifies against jwt_secret", false, err.Error())
		return
	}
	r.status("server.conf auth token verifies against jwt_secret", addr == cfg.PublicAddr, addr)
}

func (d *Doctor) envChecks(r *report) {
	r.record(checkEnvExact(r, "SCCACHE_NO_DAEMON", "1"))
	r.record(checkEnvExact(r, "SCCACHE_DIST_AUTH", "token"))
	r.record(checkEnvSet(r, "SCCACHE_DIST_TOKEN"))
	r.record(checkEnvSet(r, "SCCACHE_SCHEDULER_URL"))
	optionalEnv(r, "SCCACHE_LOG")
	optionalEnv(r, "SCCACHE_CONF")
}

func checkEnvExact(r *report, name, want string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return r.status(name, false)
	}
	return r.status(name, v == want, v)
}

func checkEnvSet(r *report, name string) bool {
	v := os.Getenv(name)
	return r.status(name+" is set", v != "", v)
}

func optionalEnv(r *report, name string) {
	if v, ok := os.LookupEnv(name); ok {
		r.printf("* Optional: %s=%s\n", name, v)
	}
}

func (d *Doctor) clientConfigChecks(r *report) {
	path := sccache.DefaultClientConfigPath()
	r.printf("Using config file: %s\n", path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		r.printf("\nWarning: Config file not found at %s\n", path)
		r.record(false)
		return
	}
	if err != nil {
		r.printf("\nError reading config file: %v\n", err)
		r.record(false)
		return
	}

	r.printf("\n## Config file contents:\n")
	r.printf("-------------------\n")
	r.printf("%s\n", data)
	r.printf("-------------------\n")

	cfg, err := sccache.ParseClientConfig(data)
	if err != nil {
		r.printf("\nError reading config file: %v\n", err)
		r.record(false)
		return
	}
	r.record(r.status("scheduler_url present", cfg.Dist.SchedulerURL != ""))
	r.record(r.status("auth type == token", cfg.Dist.Auth.Type == "token"))
	r.record(r.status("env SCCACHE_DIST_TOKEN matches config token",
		cfg.Dist.Auth.Token == os.Getenv("SCCACHE_DIST_TOKEN")))
	r.record(r.status("env SCCACHE_SCHEDULER_URL matches config scheduler_url",
		cfg.Dist.SchedulerURL == os.Getenv("SCCACHE_SCHEDULER_URL")))
}

// runtimeChecks probes the scheduler and builder ports from this host.
// The scheduler address comes from SCCACHE_SCHEDULER_URL; the builder
// is assumed to live on the same host at the configured builder port.
func (d *Doctor) runtimeChecks(r *report) {
	host, port := parseHostPort(os.Getenv("SCCACHE_SCHEDULER_URL"))
	if host == "" || port == 0 {
		r.printf("* Could not parse scheduler URL, skipping runtime connectivity checks.\n")
		r.record(false)
		return
	}
	builderPort := 10501
	if d.Config != nil && d.Config.BuilderPort != 0 {
		builderPort = d.Config.BuilderPort
	}
	r.record(r.status(fmt.Sprintf("Host can connect to scheduler at %s:%d", host, port), d.canConnect(host, port)))
	r.record(r.status(fmt.Sprintf("Host can connect to builder at %s:%d", host, builderPort), d.canConnect(host, builderPort)))
}

func parseHostPort(raw string) (string, int) {
	if raw == "" {
		return "", 0
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return "", 0
	}
	return u.Hostname(), port
}

func (d *Doctor) canConnect(host string, port int) bool {
	dial := d.Dial
	if dial == nil {
		dial = net.DialTimeout
	}
	conn, err := dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 3*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
