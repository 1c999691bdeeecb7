package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/V4T54L/menuhub/internal/adapter/repository/postgres"
	"github.com/V4T54L/menuhub/internal/adapter/tenantconn"
	"github.com/V4T54L/menuhub/internal/adapter/translate"
	"github.com/V4T54L/menuhub/internal/domain"
	"github.com/V4T54L/menuhub/internal/pkg/config"
	"github.com/V4T54L/menuhub/internal/pkg/currency"
	"github.com/V4T54L/menuhub/internal/pkg/logger"
	"github.com/V4T54L/menuhub/internal/pkg/slug"
	"github.com/V4T54L/menuhub/internal/usecase"
)

type rootOptions struct {
	logLevel string
	timeout  time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "menuctl",
		Short:         "Inspect tenant resolution and menu aggregation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall command timeout")

	root.AddCommand(
		newCandidatesCmd(),
		newResolveCmd(opts),
		newMenuCmd(opts),
		newTranslateCmd(opts),
	)
	return root
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logger.ParseLevel(o.logLevel)}))
}

func newCandidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <slug>",
		Short: "Print the display names a slug expands to, in lookup order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cands, err := slug.ExpandCandidates(args[0])
			if err != nil {
				return err
			}
			for i, c := range cands {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i+1, c)
			}
			return nil
		},
	}
}

// pipeline is the directory side of the service, built from the same
// environment the server reads.
type pipeline struct {
	resolver *usecase.DirectoryClient
	close    func()
}

func openPipeline(ctx context.Context, logger *slog.Logger) (*pipeline, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := postgres.Open(ctx, cfg.DirectoryURL)
	if err != nil {
		return nil, nil, err
	}
	repo := postgres.NewDirectoryRepository(db, logger)
	resolver := usecase.NewDirectoryClient(repo, logger, nil, cfg.DirectoryRetryMax, cfg.DirectoryRetryInitial)
	return &pipeline{resolver: resolver, close: func() { _ = db.Close() }}, cfg, nil
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <slug>",
		Short: "Resolve a slug to its tenant directory record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			logger := opts.logger(cmd.ErrOrStderr())

			p, _, err := openPipeline(ctx, logger)
			if err != nil {
				return err
			}
			defer p.close()

			cands, err := slug.ExpandCandidates(args[0])
			if err != nil {
				return err
			}
			rec, err := p.resolver.Resolve(ctx, cands)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"id":            rec.ID,
				"display_name":  rec.DisplayName,
				"data_endpoint": tenantconn.Redact(rec.DataEndpoint),
			})
		},
	}
}

type menuOptions struct {
	category string
	lang     string
	currency string
	raw      bool
}

func newMenuCmd(opts *rootOptions) *cobra.Command {
	mo := &menuOptions{}
	cmd := &cobra.Command{
		Use:   "menu <slug>",
		Short: "Load a tenant's menu the way the public endpoint does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			logger := opts.logger(cmd.ErrOrStderr())

			p, cfg, err := openPipeline(ctx, logger)
			if err != nil {
				return err
			}
			defer p.close()

			mode, err := currency.ParseMode(cfg.CurrencyMode)
			if err != nil {
				return err
			}
			dialer := tenantconn.NewDialer(tenantconn.DialerConfig{
				StorageBucket: cfg.StorageBucket,
				ImageBaseURL:  cfg.ImageBaseURL,
				HTTPClient:    &http.Client{Timeout: cfg.FetchTimeout},
			}, logger)
			conns := tenantconn.NewSingleSlotCache(dialer.Dial, logger, nil)
			defer func() {
				if c := conns.Current(); c != nil {
					c.Store.Close()
				}
			}()

			svc := usecase.NewMenuService(p.resolver, conns, usecase.NewMenuAggregator(logger, nil, cfg.FetchTimeout), logger)
			view, rec, err := svc.Menu(ctx, args[0], domain.MenuFilter{CategoryID: mo.category})
			if err != nil {
				return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
			}
			if mo.raw {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return printMenu(cmd.OutOrStdout(), rec, view, mo, mode)
		},
	}
	cmd.Flags().StringVar(&mo.category, "category", "", "only show items of this category id")
	cmd.Flags().StringVar(&mo.lang, "lang", "", "display language (defaults to the tenant default)")
	cmd.Flags().StringVar(&mo.currency, "currency", "", "display currency (defaults to the tenant base currency)")
	cmd.Flags().BoolVar(&mo.raw, "raw", false, "print the aggregated menu as JSON")
	return cmd
}

func printMenu(w io.Writer, rec *domain.TenantRecord, view *domain.MenuView, mo *menuOptions, mode currency.Mode) error {
	lang := mo.lang
	if lang == "" && view.Language != nil {
		lang = view.Language.DefaultLanguage
	}
	var base, cur string
	var rates map[string]float64
	if view.Currency != nil {
		base, rates = view.Currency.BaseCurrency, view.Currency.Rates
		cur = strings.ToUpper(mo.currency)
		if cur == "" {
			cur = strings.ToUpper(base)
		}
	}

	name := rec.DisplayName
	if view.Profile != nil {
		name = view.Profile.Name.In(lang)
	}
	fmt.Fprintf(w, "%s (%s)\n", name, rec.ID)

	byCategory := make(map[string][]domain.Item)
	for _, it := range view.Items {
		byCategory[it.CategoryID] = append(byCategory[it.CategoryID], it)
	}
	for _, c := range view.Categories {
		items := byCategory[c.ID]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", c.Name.In(lang))
		for _, it := range items {
			price := "-"
			if it.Price != nil {
				p := *it.Price
				if base != "" {
					converted, err := currency.Convert(p, base, cur, rates, mode)
					if err != nil {
						return err
					}
					p = converted
				}
				price = fmt.Sprintf("%.2f %s", math.Round(p*100)/100, cur)
			}
			star := " "
			if it.Featured {
				star = "*"
			}
			fmt.Fprintf(w, " %s %-40s %s\n", star, it.Name.In(lang), price)
		}
	}
	return nil
}

// translateEnv is read with the same variable names the server uses, without
// requiring the directory settings.
type translateEnv struct {
	URL    string `env:"TRANSLATE_URL" envDefault:"http://localhost:5000"`
	APIKey string `env:"TRANSLATE_API_KEY"`
}

func newTranslateCmd(opts *rootOptions) *cobra.Command {
	var (
		field, from string
		targets     []string
		metaFile    string
	)
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Machine-translate a field and print its variants and provenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			var te translateEnv
			if err := env.Parse(&te); err != nil {
				return err
			}
			client := translate.NewClient(te.URL, te.APIKey, &http.Client{Timeout: 15 * time.Second})
			uc := usecase.NewTranslationUseCase(client, opts.logger(cmd.ErrOrStderr()))

			meta := domain.TranslationMeta{}
			if metaFile != "" {
				raw, err := os.ReadFile(metaFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &meta); err != nil {
					return fmt.Errorf("parse %s: %w", metaFile, err)
				}
			}

			text := &domain.LocalizedText{Base: args[0]}
			meta, err := uc.TranslateEntity(ctx, meta, map[string]*domain.LocalizedText{field: text}, from, targets)
			out := map[string]any{
				"field":                field,
				"text":                 text,
				"translation_metadata": meta,
			}
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&field, "field", "name", "field name used in the provenance keys")
	cmd.Flags().StringVar(&from, "from", "en", "source language")
	cmd.Flags().StringSliceVar(&targets, "to", []string{"sq"}, "target languages")
	cmd.Flags().StringVar(&metaFile, "meta", "", "existing translation_metadata JSON; protected keys are skipped")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
