package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"overseer/internal/feature"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show feature status counts and running work for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context(), cmd.OutOrStdout())
	},
}

func showStatus(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	proj, err := projectPath()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	features, err := st.GetAll(ctx, proj)
	if err != nil {
		return fmt.Errorf("failed to load features: %w", err)
	}

	counts := make(map[feature.Status]int)
	var running []feature.Feature
	for _, f := range features {
		counts[f.Status]++
		if f.Status.IsRunning() {
			running = append(running, f)
		}
	}

	fmt.Fprintf(out, "Project: %s (%d features)\n\n", proj, len(features))

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(out, "  %-26s %d\n", s, counts[feature.Status(s)])
	}

	if len(running) > 0 {
		fmt.Fprintln(out, "\nRunning:")
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tSTATUS\tTITLE")
		for _, f := range running {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", f.ID, f.Status, f.Title)
		}
		w.Flush()
	}
	return nil
}
