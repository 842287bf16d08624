package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overseer/internal/config"
	"overseer/internal/executor"
	"overseer/internal/notify"
	"overseer/internal/orchestrator"
	"overseer/internal/store"
	"overseer/internal/telemetry"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// overseerd is the headless daemon: one project, one auto-loop, no
// interactive commands. Flags cover the same knobs as the CLI so the
// daemon can run under a process supervisor with no config file.
func main() {
	var cfgFile string
	pflag.StringVar(&cfgFile, "config", "", "config file (default is ./overseer.yaml)")
	pflag.BoolP("verbose", "v", false, "Enable verbose/debug logging")

	pflag.String("project", ".", "Project directory")
	pflag.Int("max-agents", 3, "Concurrency ceiling for running agents")
	pflag.Duration("poll-interval", 5*time.Second, "How often to rescan for eligible features")
	pflag.Bool("skip-verification", false, "Relax dependency gating to not require verified dependencies")
	pflag.String("executor", "local", "Executor type: 'local' or 'docker'")
	pflag.String("executor-command", "", "Agent command for the local executor")
	pflag.String("image", "", "Agent image for the docker executor")
	pflag.String("network", "", "Docker network for spawned agent containers")
	pflag.Bool("metrics", false, "Expose Prometheus metrics")
	pflag.String("metrics-addr", ":2112", "Metrics listen address")

	pflag.Parse()

	config.Load(cfgFile)

	viper.BindPFlag("debug", pflag.Lookup("verbose"))
	viper.BindPFlag("project", pflag.Lookup("project"))
	viper.BindPFlag("max_concurrency", pflag.Lookup("max-agents"))
	viper.BindPFlag("poll_interval", pflag.Lookup("poll-interval"))
	viper.BindPFlag("skip_verification", pflag.Lookup("skip-verification"))
	viper.BindPFlag("executor.type", pflag.Lookup("executor"))
	viper.BindPFlag("executor.command", pflag.Lookup("executor-command"))
	viper.BindPFlag("executor.image", pflag.Lookup("image"))
	viper.BindPFlag("executor.network", pflag.Lookup("network"))
	viper.BindPFlag("metrics.enabled", pflag.Lookup("metrics"))
	viper.BindPFlag("metrics.addr", pflag.Lookup("metrics-addr"))

	logger := telemetry.NewLogger(viper.GetBool("debug"), viper.GetString("log_file"), false)
	telemetry.InitLogger(viper.GetBool("debug"), viper.GetString("log_file"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proj := viper.GetString("project")

	st, err := store.New(store.Config{
		Type:             viper.GetString("store.type"),
		ConnectionString: viper.GetString("store.connection_string"),
	})
	if err != nil {
		logger.Error("failed to open feature store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var exec executor.Executor
	switch viper.GetString("executor.type") {
	case "docker":
		exec, err = executor.NewDockerExecutor(
			viper.GetString("executor.image"),
			viper.GetString("executor.network"),
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize docker executor", "error", err)
			os.Exit(1)
		}
	case "local", "":
		cmd := viper.GetString("executor.command")
		if cmd == "" {
			logger.Error("executor.command must be configured in local mode")
			os.Exit(1)
		}
		exec = executor.NewLocalExecutor(cmd, logger)
	default:
		logger.Error("invalid executor type, use 'local' or 'docker'", "type", viper.GetString("executor.type"))
		os.Exit(1)
	}

	metrics := telemetry.NewMetrics()
	if viper.GetBool("metrics.enabled") {
		go func() {
			addr := viper.GetString("metrics.addr")
			logger.Info("metrics server listening", "addr", addr)
			if err := metrics.StartMetricsServer(addr); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	orch := orchestrator.New(orchestrator.Config{
		Store:            st,
		Executor:         exec,
		Sink:             notify.NewManager(logger),
		Metrics:          metrics,
		Logger:           logger,
		PollInterval:     viper.GetDuration("poll_interval"),
		SkipVerification: viper.GetBool("skip_verification"),
	})
	recovery := orchestrator.NewRecoveryManager(orch)

	logger.Info("starting overseer daemon",
		"project", proj,
		"max_agents", viper.GetInt("max_concurrency"),
		"executor", viper.GetString("executor.type"))

	if n := recovery.ResumeInterrupted(ctx, proj); n > 0 {
		logger.Info("resumed interrupted features", "project", proj, "count", n)
	}

	if err := orch.StartAutoLoop(ctx, proj, viper.GetInt("max_concurrency")); err != nil {
		logger.Error("failed to start auto loop", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	inFlight := orch.StopAutoLoop(proj)
	logger.Info("auto loop stopped", "project", proj, "in_flight", inFlight)

	markCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	marked := recovery.MarkAllRunningFeaturesInterrupted(markCtx, "daemon shutdown")
	logger.Info("marked running features interrupted", "count", marked)
}
