// Package commands defines all Cobra CLI commands for the carl binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/audit"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/config"
	"github.com/StevenCC12/carl-vector-knowledge-base/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "carl",
		Short: "CARL — customer question triage backed by a vector knowledge base",
		Long: `CARL answers incoming customer questions from a knowledge base of past
webinar Q&A entries and transcripts.

Each question is embedded and matched against stored questions in Qdrant.
High-confidence matches are answered automatically, medium-confidence matches
become drafts for human review, and everything else is escalated.

The embedding backend is selected via the EMBEDDING_PROVIDER environment
variable or a YAML config file (~/.carl/config.yaml).
See 'carl --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load .env from the working directory first so a local file can
			// provide API keys and hosts. Absence is not an error.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.carl/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}
