package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rchen/bookmind/internal/schema"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged books",
		Run:   runList,
	}

	cmd.Flags().Bool("tags-only", false, "Only output tags")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	tagsOnly, _ := cmd.Flags().GetBool("tags-only")

	_, client, _, err := newAgent()
	if err != nil {
		exitErr("setup", err)
	}
	defer client.Close()

	reg := schema.NewRegistry()
	records, err := client.Fetch(cmd.Context(), reg.TagPrefix(schema.KindBook)+"-")
	if err != nil {
		exitErr("list", err)
	}

	if tagsOnly {
		for _, r := range records {
			fmt.Println(r.Tag)
		}
		return
	}
	printJSON(records)
}
