package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/embedder"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/logging"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/triage"
)

// NewAskCmd constructs the `carl ask` command, which triages a single
// question from the command line and prints the routing decision.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Triage a single question against the knowledge base",
		Long: `Embed a question, search the Q&A knowledge base, and print the routing
decision with the matched answer.

Examples:
  carl ask "Will the webinar recording be shared afterwards?"
  carl ask "How do I get a copy of the slides?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ask: failed to initialise embedder: %w", err)
			}

			store, err := openEntriesStore(ctx)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer store.Close()

			svc, err := triage.NewService(emb, store, triagePolicy())
			if err != nil {
				return fmt.Errorf("ask: failed to create triage service: %w", err)
			}

			question := strings.Join(args, " ")
			result, err := svc.Triage(ctx, question)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Printf("action:  %s\n", result.Action)
			fmt.Printf("score:   %.4f\n", result.Score)
			if result.RetrievedQuestion != "" {
				fmt.Printf("matched: %s\n", result.RetrievedQuestion)
			}
			fmt.Printf("message: %s\n", result.Message)

			return nil
		},
	}

	return cmd
}
