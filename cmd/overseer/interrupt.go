package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"overseer/internal/notify"
	"overseer/internal/orchestrator"
	"overseer/internal/telemetry"
)

func init() {
	interruptCmd.Flags().String("reason", "", "Why the feature is being interrupted")
	rootCmd.AddCommand(interruptCmd)
}

var interruptCmd = &cobra.Command{
	Use:   "interrupt FEATURE_ID",
	Short: "Mark a feature as interrupted",
	Long: `Marks a feature interrupted so the next run resumes it. Features in a
pipeline sub-state keep that sub-state; it already records where to resume.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		proj, err := projectPath()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		orch := orchestrator.New(orchestrator.Config{
			Store:    st,
			Executor: nil,
			Sink:     notify.NewManager(logger),
			Metrics:  telemetry.NewMetrics(),
			Logger:   logger,
		})
		recovery := orchestrator.NewRecoveryManager(orch)

		reason, _ := cmd.Flags().GetString("reason")
		if err := recovery.MarkFeatureInterrupted(cmd.Context(), proj, args[0], reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Feature %s interrupted.\n", args[0])
		return nil
	},
}
