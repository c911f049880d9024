package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rchen/bookmind/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recommend [text]",
		Short: "Get book recommendations",
		Long:  "Recommend books from your reading history. Narrow with --similar-to, --genre, or --author.",
		Run:   runRecommend,
	}

	cmd.Flags().String("similar-to", "", "Recommend books similar to this title")
	cmd.Flags().StringP("genre", "g", "", "Recommend within a genre")
	cmd.Flags().StringP("author", "a", "", "Recommend by author")

	RootCmd.AddCommand(cmd)
}

func runRecommend(cmd *cobra.Command, args []string) {
	similar, _ := cmd.Flags().GetString("similar-to")
	genre, _ := cmd.Flags().GetString("genre")
	author, _ := cmd.Flags().GetString("author")

	operation := "recommend"
	payload := make(map[string]any)
	switch {
	case similar != "":
		operation = "recommend_similar"
		payload["reference_title"] = similar
	case genre != "":
		operation = "recommend_by_genre"
		payload["genre"] = genre
	case author != "":
		operation = "recommend_by_author"
		payload["author"] = author
	}

	a, client, cfg, err := newAgent()
	if err != nil {
		exitErr("setup", err)
	}
	defer client.Close()

	resp, err := a.Handle(cmd.Context(), &model.Request{
		Operation: operation,
		Text:      strings.Join(args, " "),
		User:      currentUser(cfg),
		Payload:   payload,
	})
	if err != nil {
		exitErr("recommend", err)
	}
	printJSON(resp)
}
