package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"recsync/features/catalogsync"
	"recsync/internal/adapter/kontent"
	"recsync/internal/app"
	"recsync/internal/catalog"
)

// InitCatalogOptions holds flags for the init-catalog command.
type InitCatalogOptions struct {
	*RootOptions
	Environment string
	ContentType string
	Language    string
	SkipImport  bool
}

// NewInitCatalogCommand creates the command that declares the catalog
// structure for one content type and imports its items.
func NewInitCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitCatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init-catalog",
		Short: "Declare catalog properties for a content type and import its items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitCatalog(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Environment, "environment", "", "Kontent.ai environment id (defaults to KONTENT_ENVIRONMENT_ID)")
	cmd.Flags().StringVar(&opts.ContentType, "type", "", "content type codename")
	cmd.Flags().StringVar(&opts.Language, "language", "", "language codename")
	cmd.Flags().BoolVar(&opts.SkipImport, "skip-import", false, "only declare the catalog properties")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("language")

	return cmd
}

func runInitCatalog(cmd *cobra.Command, opts *InitCatalogOptions) error {
	cfg := opts.Config

	env := opts.Environment
	if env == "" {
		env = cfg.KontentEnvironmentID
	}
	if env == "" {
		return errors.New("environment id is required: pass --environment or set KONTENT_ENVIRONMENT_ID")
	}
	if err := cfg.ValidateEngine(); err != nil {
		return err
	}

	engine, err := app.NewEngine(cfg)
	if err != nil {
		return err
	}
	src := kontent.NewClient(kontent.Config{
		EnvironmentID: env,
		ContentType:   opts.ContentType,
		Language:      opts.Language,
	}, app.KontentOptions(cfg)...)

	res, err := catalogsync.NewService(catalog.NewSyncer(engine)).Run(cmd.Context(), src, opts.SkipImport)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
