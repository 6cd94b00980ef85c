package farm

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Endpoint is one farm port and whether a TCP connection to it
// succeeds from this host.
type Endpoint struct {
	Addr      string
	Reachable bool
}

// Status is a point-in-time view of the farm.
type Status struct {
	Name      string
	Exists    bool
	Running   bool
	State     string
	Uptime    string
	ID        string
	Image     string
	Scheduler Endpoint
	Builder   Endpoint
}

// Status inspects the farm container and probes both service ports on
// loopback.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	st := &Status{Name: m.cfg.Container}
	c, err := m.findContainer(ctx)
	if err != nil {
		return nil, err
	}
	if c != nil {
		st.Exists = true
		st.State = c.State
		st.Running = c.State == "running"
		st.Uptime = c.Status
		st.ID = shortID(c.ID)
		st.Image = c.Image
	}
	st.Scheduler = probe(m.cfg.SchedulerPort)
	st.Builder = probe(m.cfg.BuilderPort)
	return st, nil
}

// Print writes a human readable status report.
func (s *Status) Print(w io.Writer) {
	switch {
	case !s.Exists:
		fmt.Fprintf(w, "Container:  %s (not created)\n", s.Name)
	case s.Running:
		fmt.Fprintf(w, "Container:  %s (%s)\n", s.Name, s.Uptime)
	default:
		fmt.Fprintf(w, "Container:  %s (%s)\n", s.Name, s.State)
	}
	if s.Exists {
		fmt.Fprintf(w, "Image:      %s\n", s.Image)
		fmt.Fprintf(w, "ID:         %s\n", s.ID)
	}
	fmt.Fprintf(w, "Scheduler:  %s (%s)\n", s.Scheduler.Addr, reachability(s.Scheduler))
	fmt.Fprintf(w, "Builder:    %s (%s)\n", s.Builder.Addr, reachability(s.Builder))
}

func reachability(e Endpoint) string {
	if e.Reachable {
		return "reachable"
	}
	return "unreachable"
}

func probe(port int) Endpoint {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return Endpoint{Addr: addr}
	}
	conn.Close()
	return Endpoint{Addr: addr, Reachable: true}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
