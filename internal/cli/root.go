package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"recsync/internal/config"
	"recsync/internal/logger"
)

// RootOptions holds state shared by all commands.
type RootOptions struct {
	Config *config.Config
}

// NewRootCommand creates the root command for the recsync binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recsync",
		Short: "Sync Kontent.ai content into a recommendation catalog",
		Long: `recsync receives Kontent.ai publish webhooks and mirrors the affected
items into a Recombee or Weaviate catalog. The init-catalog command declares
the catalog schema for a content type and performs the initial import.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level, _ := cfg.SlogLevel()
			slog.SetDefault(logger.New(os.Stdout, level))
			opts.Config = cfg
			return nil
		},
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitCatalogCommand(opts))

	return cmd
}
