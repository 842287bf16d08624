package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"overseer/internal/notify"
	"overseer/internal/orchestrator"
	"overseer/internal/telemetry"
)

func init() {
	runCmd.Flags().Int("max-agents", 0, "Concurrency ceiling (overrides config)")
	runCmd.Flags().Bool("mock", false, "Use the mock executor (no agent required)")
	viper.BindPFlag("max_concurrency_flag", runCmd.Flags().Lookup("max-agents"))
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the auto-loop for a project",
	Long: `Resumes interrupted features, then continuously picks up eligible
pending features and dispatches them to the agent executor, up to the
configured concurrency ceiling. On SIGINT/SIGTERM the loop stops and every
running feature is marked interrupted (pipeline sub-states are preserved).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mock, _ := cmd.Flags().GetBool("mock")
		return runAutoLoop(mock)
	},
}

func runAutoLoop(mock bool) error {
	logger := newLogger()

	proj, err := projectPath()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open feature store: %w", err)
	}
	defer st.Close()

	exec, err := buildExecutor(logger, mock)
	if err != nil {
		return err
	}

	maxConcurrency := viper.GetInt("max_concurrency")
	if n := viper.GetInt("max_concurrency_flag"); n > 0 {
		maxConcurrency = n
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if n := recovery.ResumeInterrupted(ctx, proj); n > 0 {
		logger.Info("resumed interrupted features", "project", proj, "count", n)
	}

	if err := orch.StartAutoLoop(ctx, proj, maxConcurrency); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())

	inFlight := orch.StopAutoLoop(proj)
	logger.Info("auto loop stopped", "project", proj, "in_flight", inFlight)

	// Reclassify whatever was still running so the next start resumes it.
	markCtx, markCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer markCancel()
	marked := recovery.MarkAllRunningFeaturesInterrupted(markCtx, "process shutdown")
	logger.Info("marked running features interrupted", "count", marked)

	return nil
}
