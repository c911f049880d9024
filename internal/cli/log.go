package cli

import (
	"github.com/spf13/cobra"

	"github.com/rchen/bookmind/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a book",
		Long:  "Log a book with its hard fields (title, author, rating 1-5, status) and free-form notes. Notes accumulate across logs; they are never overwritten.",
		Run:   runLog,
	}
	addBookFlags(cmd)
	cmd.MarkFlagRequired("title")
	RootCmd.AddCommand(cmd)
}

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a logged book",
		Long:  "Update fields of an already-logged book. Last write wins per field, except notes, which append.",
		Run:   runUpdate,
	}
	addBookFlags(cmd)
	cmd.MarkFlagRequired("title")
	RootCmd.AddCommand(cmd)
}

func addBookFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "Book title (required)")
	cmd.Flags().StringP("author", "a", "", "Author")
	cmd.Flags().StringP("rating", "r", "", "Rating 1-5")
	cmd.Flags().StringP("status", "s", "", "Status: to-read, reading, finished, abandoned, on-hold")
	cmd.Flags().String("genre", "", "Genre")
	cmd.Flags().String("started", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("finished", "", "Finish date (YYYY-MM-DD)")
	cmd.Flags().String("review", "", "Review text")
	cmd.Flags().String("notes", "", "Notes, quotes, observations")
	cmd.Flags().String("preferences", "", "Reading preferences")
}

func bookPayload(cmd *cobra.Command) map[string]any {
	payload := make(map[string]any)
	for flag, field := range map[string]string{
		"title":       "book_title",
		"author":      "author",
		"rating":      "rating",
		"status":      "status",
		"genre":       "genre",
		"started":     "start_date",
		"finished":    "finish_date",
		"review":      "review",
		"notes":       "notes",
		"preferences": "preferences",
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			payload[field] = v
		}
	}
	return payload
}

func runLog(cmd *cobra.Command, args []string) {
	runBookStore(cmd, "log_book")
}

func runUpdate(cmd *cobra.Command, args []string) {
	runBookStore(cmd, "update_book")
}

func runBookStore(cmd *cobra.Command, operation string) {
	a, client, cfg, err := newAgent()
	if err != nil {
		exitErr("setup", err)
	}
	defer client.Close()

	resp, err := a.Handle(cmd.Context(), &model.Request{
		Operation: operation,
		User:      currentUser(cfg),
		Payload:   bookPayload(cmd),
	})
	if err != nil {
		exitErr(operation, err)
	}
	printJSON(resp)
}
