package farm

import (
	"context"
	"fmt"
	"io"

	"github.com/distfarm/distfarm/pkg/sccache"
)

// Configs prints the client-side setup for this farm: the auth token,
// a suggested sccache client config and the environment exports a
// build machine needs.
func (m *Manager) Configs(ctx context.Context, w io.Writer) error {
	token, err := m.Token(ctx)
	if err != nil {
		return fmt.Errorf("farm must be running to read its token: %w", err)
	}

	rendered, err := sccache.NewClientConfig(m.cfg.SchedulerURL(), token).Render()
	if err != nil {
		return fmt.Errorf("render client config: %w", err)
	}

	fmt.Fprintf(w, "Container AUTH token: %s\n\n", token)
	fmt.Fprintf(w, "Suggested %s:\n", sccache.DefaultClientConfigPath())
	fmt.Fprintln(w, "-------------------")
	fmt.Fprintf(w, "%s", rendered)
	fmt.Fprintln(w, "-------------------")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Consider adding the following to your .bashrc:")
	fmt.Fprintln(w, "export SCCACHE_NO_DAEMON=1")
	fmt.Fprintln(w, "export SCCACHE_DIST_AUTH=token")
	fmt.Fprintf(w, "export SCCACHE_DIST_TOKEN=\"$(docker exec %s cat %s)\"\n", m.cfg.Container, tokenMountPath)
	fmt.Fprintf(w, "export SCCACHE_DIST_TOKEN=\"${SCCACHE_DIST_TOKEN:-%s}\"\n", token)
	fmt.Fprintf(w, "export SCCACHE_SCHEDULER_URL=%s\n", m.cfg.SchedulerURL())
	return nil
}
