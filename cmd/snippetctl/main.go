// snippetctl scans and translates storefront snippet files from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/vivatura/translator/internal/ai/anthropic"
	"github.com/vivatura/translator/internal/config"
	"github.com/vivatura/translator/internal/snippetfile"
	"github.com/vivatura/translator/internal/translation"
	"github.com/vivatura/translator/pkg/models"
)

// app carries what every subcommand needs. newTranslator is swapped in tests.
type app struct {
	roots         []string
	newTranslator func(cfg *config.Config) models.Translator
}

func defaultApp() *app {
	return &app{
		newTranslator: func(cfg *config.Config) models.Translator {
			return anthropic.NewClient(cfg.Anthropic)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "snippetctl",
		Short: "Scan and translate storefront snippet files",
		Long: `snippetctl works on snippet files (storefront.<locale>.json / .yaml)
below the configured snippet roots without a database.

Commands:
  scan        List snippet files grouped by app, plugin or package
  translate   Translate one snippet file into a target locale
  models      List the models offered by the translation provider`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVar(&a.roots, "root", nil,
		"Snippet root directory (repeatable; defaults to SNIPPET_ROOTS)")

	root.AddCommand(
		newScanCmd(a),
		newTranslateCmd(a),
		newModelsCmd(a),
	)
	return root
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(defaultApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the --root override.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(a.roots) > 0 {
		cfg.Snippets.Roots = a.roots
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// scan
// ---------------------------------------------------------------------------

func newScanCmd(a *app) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List snippet files grouped by source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			scanner := snippetfile.NewScanner(cfg.Snippets.Roots)

			var sources []snippetfile.Source
			if language != "" {
				sources, err = scanner.FindByLanguage(language)
			} else {
				sources, err = scanner.Find()
			}
			if err != nil {
				return fmt.Errorf("scan snippet files: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"sources": sources,
				"total":   len(sources),
			})
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Only list files for this locale (e.g. en-GB)")
	return cmd
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd(a *app) *cobra.Command {
	var (
		target    string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate a snippet file into a target locale",
		Long: `Translate a source snippet file and write storefront.<locale> next to it.
Existing target keys are kept unless --overwrite is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			path := args[0]
			if len(cfg.Snippets.Roots) > 0 {
				if path, err = snippetfile.NewScanner(cfg.Snippets.Roots).Resolve(path); err != nil {
					return err
				}
			}

			set := translation.SettingsFromConfig(cfg.Translation)
			if cmd.Flags().Changed("overwrite") {
				set.OverwriteExisting = overwrite
			}

			svc := translation.NewService(nil, a.newTranslator(cfg))
			result, err := svc.TranslateSnippetFile(cmd.Context(), path, target, set)
			if err != nil {
				return fmt.Errorf("translate %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "Target locale (e.g. fr-FR)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing translations")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// ---------------------------------------------------------------------------
// models
// ---------------------------------------------------------------------------

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the provider's models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			tr := a.newTranslator(cfg)
			list, err := translation.NewService(nil, tr).Models(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"provider": tr.Name(),
				"models":   list,
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
