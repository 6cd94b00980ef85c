package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/docker/client"
	"github.com/moby/term"
	"github.com/spf13/cobra"

	"github.com/distfarm/distfarm/pkg/config"
	"github.com/distfarm/distfarm/pkg/doctor"
	"github.com/distfarm/distfarm/pkg/env"
	"github.com/distfarm/distfarm/pkg/exec"
	"github.com/distfarm/distfarm/pkg/farm"
	"github.com/distfarm/distfarm/pkg/logging"
	"github.com/distfarm/distfarm/pkg/version"
)

var _ doctor.ContainerRuntime = (*farm.Manager)(nil)

var (
	cfgFile   string
	logFormat string
)

func main() {
	if _, err := env.ApplyDir("."); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	root := &cobra.Command{
		Use:          "distfarm",
		Short:        "Manage a containerized sccache-dist compile farm",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.distfarm/config.yaml)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", os.Getenv("DISTFARM_LOG_FORMAT"), "log output format: text or json")

	root.AddCommand(buildCmd())
	root.AddCommand(startCmd())
	root.AddCommand(stopCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(logsCmd())
	root.AddCommand(getConfigsCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newManager() (*farm.Manager, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, nil, fmt.Errorf("docker client: %w", err)
	}
	logger := logging.New(cfg.LogLevel, logFormat)
	return farm.New(cli, cfg, logger, os.Stdout), cfg, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the farm image",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return m.BuildImage(ctx)
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the farm container",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return m.Start(ctx)
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop and remove the farm container",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return m.Stop(ctx)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show farm container and port status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			st, err := m.Status(ctx)
			if err != nil {
				return err
			}
			st.Print(os.Stdout)
			return nil
		},
	}
}

func logsCmd() *cobra.Command {
	var follow bool
	var tail string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Stream farm container logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return m.Logs(ctx, farm.LogsOptions{Follow: follow, Tail: tail}, os.Stdout, os.Stderr)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow log output")
	cmd.Flags().StringVar(&tail, "tail", "all", "number of lines to show from the end")
	return cmd
}

func getConfigsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get-configs",
		Aliases: []string{"configs"},
		Short:   "Print the client config and exports for this farm",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			return m.Configs(ctx, os.Stdout)
		},
	}
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local sccache client and farm setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := newManager()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()

			_, isTerm := term.GetFdInfo(os.Stdout)
			d := &doctor.Doctor{
				Config: cfg,
				Farm:   m,
				Runner: &exec.Runner{Timeout: 10 * time.Second, MaxOutput: 1 << 20},
				Out:    os.Stdout,
				Color:  isTerm && os.Getenv("NO_COLOR") == "",
			}
			if d.Run(ctx) != 0 {
				return fmt.Errorf("some checks failed")
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.String())
			return nil
		},
	}
}
