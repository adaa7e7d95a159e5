package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog"
)

// NewFacetsCommand creates the facets command.
func NewFacetsCommand(rootOpts *RootOptions) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:          "facets",
		Short:        "List distinct facet values",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFacets(cmd, rootOpts, fields)
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "facet field to list (repeatable, default all)")

	return cmd
}

func runFacets(cmd *cobra.Command, rootOpts *RootOptions, names []string) error {
	fields := catalog.FacetFields()
	if len(names) > 0 {
		fields = fields[:0:0]
		for _, name := range names {
			f, ok := catalog.LookupField(name)
			if !ok {
				return fmt.Errorf("field %q: %w", name, catalog.ErrUnknownField)
			}
			fields = append(fields, f)
		}
	}

	ctx := cmd.Context()
	svc, release, err := rootOpts.openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	facets, err := svc.Catalog().ListFacets(ctx, fields)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return writeJSON(out, facets)
	}
	for _, f := range fields {
		fmt.Fprintf(out, "%s: %s\n", f, strings.Join(facets[f], ", "))
	}
	return nil
}

// NewCategoriesCommand creates the categories command.
func NewCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "categories",
		Short:        "List categories with their display labels",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, release, err := rootOpts.openService(ctx)
			if err != nil {
				return err
			}
			defer release()

			cats, err := svc.Catalog().Categories(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(out, cats)
			}
			for _, c := range cats {
				fmt.Fprintf(out, "%s\t%s\n", c.Key, c.Label)
			}
			return nil
		},
	}
}

type fieldInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Facet   bool     `json:"facet"`
	Aliases []string `json:"aliases"`
}

// NewFieldsCommand creates the fields command. It needs no store.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "fields",
		Short:        "Show the catalog schema and header aliases",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fm, err := rootOpts.catalogConfig().FieldMap()
			if err != nil {
				return err
			}
			infos := make([]fieldInfo, 0, len(catalog.Fields()))
			for _, f := range catalog.Fields() {
				infos = append(infos, fieldInfo{
					Name:    f.String(),
					Type:    f.Type().String(),
					Facet:   f.IsFacet(),
					Aliases: fm.Aliases(f),
				})
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return writeJSON(out, infos)
			}
			for _, fi := range infos {
				facet := ""
				if fi.Facet {
					facet = " facet"
				}
				fmt.Fprintf(out, "%-16s %-9s%s  %s\n", fi.Name, fi.Type, facet, strings.Join(fi.Aliases, ", "))
			}
			return nil
		},
	}
}
