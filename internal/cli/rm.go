package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rchen/bookmind/internal/schema"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm [title]",
		Short: "Remove a logged book (local backend only)",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRm,
	}

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	title := strings.Join(args, " ")
	reg := schema.NewRegistry()
	tag, err := reg.TagFor(schema.KindBook, title)
	if err != nil {
		exitErr("rm", err)
	}

	s, err := openLocal()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.Remove(cmd.Context(), tag); err != nil {
		exitErr("rm", err)
	}
	fmt.Printf(`{"ok":true,"removed":%q}`+"\n", tag)
}
