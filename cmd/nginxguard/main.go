package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Wikid82/nginxguard/internal/config"
	"github.com/Wikid82/nginxguard/internal/database"
	"github.com/Wikid82/nginxguard/internal/guard"
	"github.com/Wikid82/nginxguard/internal/logger"
	"github.com/Wikid82/nginxguard/internal/metrics"
	"github.com/Wikid82/nginxguard/internal/services"
	"github.com/Wikid82/nginxguard/internal/version"
)

// Test hook to inject guard options such as a stub provider
var extraGuardOptions []guard.Option

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, out io.Writer) int {
	code := 0
	root := newRootCmd(out, &code)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return code
}

func newRootCmd(out io.Writer, code *int) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "nginxguard",
		Short:        "Keep an nginx allow-list in sync with trusted network ranges",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*code = run(cmd.Context(), configPath, out)
			return nil
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "%s %s\n", version.Name, version.Full())
		},
	})
	return root
}

func run(ctx context.Context, configPath string, out io.Writer) int {
	boot, _ := logger.New(logger.Options{Debug: true, Out: out})
	boot.Debugf("Reading config file: %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		boot.WithError(err).Error("Critical: cannot load config file")
		return 1
	}

	log, closer := logger.New(logger.Options{Debug: cfg.DebugEnabled(), Out: out, File: cfg.LogFile})
	defer closer.Close()
	log.Infof("starting %s %s", version.Name, version.Full())

	opts := []guard.Option{}
	if cfg.HistoryDB != "" {
		db, err := database.Connect(cfg.HistoryDB)
		if err != nil {
			log.WithError(err).Warn("history database unavailable, updates will not be recorded")
		} else {
			defer database.Close(db)
			opts = append(opts, guard.WithHistory(services.NewHistoryService(db)))
		}
	}
	if len(cfg.NotifyURLs) > 0 {
		opts = append(opts, guard.WithNotifier(services.NewNotificationService(cfg.NotifyURLs, logger.Component(log, "notify"))))
	}
	if cfg.MetricsFile != "" {
		opts = append(opts, guard.WithMetrics(metrics.New()))
	}
	opts = append(opts, extraGuardOptions...)

	if err := guard.New(cfg, log, opts...).Start(ctx); err != nil {
		log.WithError(err).Error("Critical: run failed")
		return 1
	}
	return 0
}
