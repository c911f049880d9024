package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rchen/bookmind/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [text]",
		Short: "Ask about your books in natural language",
		Long:  "Classify a free-form question and route it: \"what should I read next?\" becomes a recommendation, \"how many books this year?\" becomes analytics, anything else falls through to backend search.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}

	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	a, client, cfg, err := newAgent()
	if err != nil {
		exitErr("setup", err)
	}
	defer client.Close()

	resp, err := a.Handle(cmd.Context(), &model.Request{
		Text: strings.Join(args, " "),
		User: currentUser(cfg),
	})
	if err != nil {
		exitErr("ask", err)
	}
	printJSON(resp)
}
