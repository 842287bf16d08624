package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"overseer/internal/notify"
	"overseer/internal/orchestrator"
	"overseer/internal/telemetry"
)

func init() {
	recoverCmd.Flags().Bool("mock", false, "Use the mock executor (no agent required)")
	rootCmd.AddCommand(recoverCmd)
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Resume interrupted features once and wait for them to finish",
	Long: `Scans the project for interrupted features (including those parked in a
pipeline sub-state), re-dispatches them to the executor with the recovery
flag set, and waits for every resumed feature to settle. Unlike run, no
auto-loop is started and no new pending work is picked up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mock, _ := cmd.Flags().GetBool("mock")
		return runRecovery(cmd.Context(), mock)
	},
}

func runRecovery(ctx context.Context, mock bool) error {
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

	orch := orchestrator.New(orchestrator.Config{
		Store:            st,
		Executor:         exec,
		Sink:             notify.NewManager(logger),
		Metrics:          telemetry.NewMetrics(),
		Logger:           logger,
		SkipVerification: viper.GetBool("skip_verification"),
	})
	recovery := orchestrator.NewRecoveryManager(orch)

	resumed := recovery.ResumeInterrupted(ctx, proj)
	if resumed == 0 {
		logger.Info("nothing to recover", "project", proj)
		return nil
	}
	logger.Info("recovering features", "project", proj, "count", resumed)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for orch.Registry().Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	logger.Info("recovery complete", "project", proj, "count", resumed)
	return nil
}
