package cli

import (
	"github.com/spf13/cobra"

	"github.com/rchen/bookmind/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show reading analytics",
		Long:  "Aggregate your logged books: totals, status counts, rating histogram, and a reading timeline.",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	a, client, cfg, err := newAgent()
	if err != nil {
		exitErr("setup", err)
	}
	defer client.Close()

	resp, err := a.Handle(cmd.Context(), &model.Request{
		Operation: "analytics",
		User:      currentUser(cfg),
	})
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(resp)
}
