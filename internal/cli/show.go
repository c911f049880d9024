package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rchen/bookmind/internal/schema"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show [title]",
		Short: "Show a book's stored profile",
		Args:  cobra.MinimumNArgs(1),
		Run:   runShow,
	}

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	reg := schema.NewRegistry()
	tag, err := reg.TagFor(schema.KindBook, strings.Join(args, " "))
	if err != nil {
		exitErr("show", err)
	}

	_, client, _, err := newAgent()
	if err != nil {
		exitErr("setup", err)
	}
	defer client.Close()

	records, err := client.Fetch(cmd.Context(), tag)
	if err != nil {
		exitErr("show", err)
	}
	if len(records) == 0 {
		exitErr("show", fmt.Errorf("no profile found for %q", strings.Join(args, " ")))
	}
	if len(records) == 1 {
		printJSON(records[0])
		return
	}
	printJSON(records)
}
