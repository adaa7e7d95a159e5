// Package cli implements catalogctl, the command-line front end to the
// catalog engine.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
	"github.com/JoeyNPP/Furniture-Site/internal/catalog/memstore"
	"github.com/JoeyNPP/Furniture-Site/internal/config"
	"github.com/JoeyNPP/Furniture-Site/internal/core"
	"github.com/JoeyNPP/Furniture-Site/internal/logging"
	"github.com/JoeyNPP/Furniture-Site/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DB          string // SQLite path
	DSN         string // Postgres URL; wins over DB
	Memory      bool
	FieldMap    string
	MatchKey    string
	LabelPolicy string
	LogLevel    string
	Format      string // "json" | "text"

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the catalogctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Ingest spreadsheets into the product catalog and inspect it",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "catalog.db", "SQLite database file")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "Postgres connection URL (default $CATALOG_DSN)")
	cmd.PersistentFlags().BoolVar(&opts.Memory, "memory", false, "use an empty in-memory catalog")
	cmd.PersistentFlags().StringVar(&opts.FieldMap, "field-map", "", "YAML header dictionary")
	cmd.PersistentFlags().StringVar(&opts.MatchKey, "match-key", "sku,title", "fields tried when matching rows")
	cmd.PersistentFlags().StringVar(&opts.LabelPolicy, "label-policy", "first_seen", "category label policy (first_seen|alphabetical)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewFacetsCommand(opts))
	cmd.AddCommand(NewCategoriesCommand(opts))
	cmd.AddCommand(NewFieldsCommand(opts))

	return cmd
}

// prepare validates global flags and sets up logging on stderr.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	_ = godotenv.Load()
	if o.DSN == "" {
		o.DSN = os.Getenv("CATALOG_DSN")
	}
	o.logger = logging.New(cmd.ErrOrStderr(), o.LogLevel, "text")
	slog.SetDefault(o.logger)
	return nil
}

func (o *RootOptions) catalogConfig() config.CatalogConfig {
	return config.CatalogConfig{
		FieldMapFile: o.FieldMap,
		MatchKey:     o.MatchKey,
		LabelPolicy:  o.LabelPolicy,
	}
}

// openService opens the selected store and builds a service over it.
// The returned function releases the store.
func (o *RootOptions) openService(ctx context.Context) (*core.Service, func(), error) {
	cc := o.catalogConfig()
	fm, err := cc.FieldMap()
	if err != nil {
		return nil, nil, err
	}
	key, err := cc.Key()
	if err != nil {
		return nil, nil, err
	}
	policy, err := cc.Policy()
	if err != nil {
		return nil, nil, err
	}

	var (
		st      catalog.ReadStore
		release = func() {}
	)
	switch {
	case o.Memory:
		st = memstore.New()
	default:
		dbc := config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: o.DB}
		if o.DSN != "" {
			dbc = config.DatabaseConfig{Driver: config.DriverPostgres, URL: o.DSN, MaxConns: 4}
		}
		opened, err := store.Open(ctx, dbc)
		if err != nil {
			return nil, nil, err
		}
		st, release = opened.Store, opened.Close
	}

	svc := core.NewService(st, core.Options{
		FieldMap:      fm,
		MatchKey:      key,
		LabelPolicy:   policy,
		MaxConcurrent: 1,
		Logger:        o.logger,
	})
	return svc, release, nil
}
