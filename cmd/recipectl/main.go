// Package main 提供 recipectl：直接對本地食譜目錄做排名與查詢。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/pkg/common"
)

const appName = "recipectl"

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options 所有子命令共用的旗標
type options struct {
	dir             string
	logLevel        string
	defaultServings int
	have            string
	asJSON          bool
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Rank recipes by the ingredients you have",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return common.InitLogger(opts.logLevel, "")
		},
	}

	cmd.PersistentFlags().StringVar(&opts.dir, "catalog", "data", "Catalog directory (ingredients.json, recipes.json, substitutes.json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&opts.defaultServings, "default-servings", 4, "Servings assumed when a recipe declares none")
	cmd.PersistentFlags().StringVar(&opts.have, "have", "", "Comma-separated ingredient ids you have")
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")

	cmd.AddCommand(rankCmd(opts), showCmd(opts), ingredientsCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	})
	return cmd
}

func loadCatalog(ctx context.Context, opts *options) (*catalog.Catalog, error) {
	loader := catalog.NewLoader(catalog.DirSource{Dir: opts.dir}, catalog.DefaultFiles(), opts.defaultServings)
	c, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}

func rankCmd(opts *options) *cobra.Command {
	var (
		criteria  matching.Criteria
		favorites string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Score, filter and sort the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel := matching.NewSelection(common.SplitList(opts.have)...)

			start := time.Now()
			results := matching.Rank(c, sel, criteria, matching.NewIDSet(common.SplitList(favorites)...))
			common.LogRanking("cli", sel.Len(), len(c.Recipes), len(results), time.Since(start))

			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			return writeRanking(cmd.OutOrStdout(), results)
		},
	}

	f := cmd.Flags()
	f.IntVar(&criteria.MaxTimeMinutes, "max-time", 0, "Maximum total time in minutes (0 = no limit)")
	f.BoolVar(&criteria.VegetarianOnly, "vegetarian", false, "Only vegetarian recipes")
	f.BoolVar(&criteria.BudgetOnly, "budget", false, "Only budget recipes")
	f.BoolVar(&criteria.FavoritesOnly, "favorites-only", false, "Only recipes listed in --favorites")
	f.StringVar(&favorites, "favorites", "", "Comma-separated favorite recipe ids")
	f.StringVar(&criteria.Category, "category", matching.CategoryAll, "Recipe category")
	f.StringVar(&criteria.Search, "search", "", "Search title and ingredient names")
	f.StringVar(&criteria.Servings, "servings", matching.ServingsAll, "Servings bucket: all, 1-2, 3-4, 5+")
	f.IntVar(&limit, "limit", 0, "Maximum number of results (0 = all)")
	return cmd
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <recipe-id>",
		Short: "Show one recipe with its ingredient coverage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd.Context(), opts)
			if err != nil {
				return err
			}
			r, ok := c.Recipe(args[0])
			if !ok {
				return common.ErrRecipeNotFound.Wrap(fmt.Errorf("recipe %q", args[0]))
			}
			result := matching.ScoreRecipe(c, r, matching.NewSelection(common.SplitList(opts.have)...))

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), matching.Ranked{Recipe: r, Match: result})
			}
			return writeRecipe(cmd.OutOrStdout(), r, result)
		},
	}
}

func ingredientsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ingredients [query]",
		Short: "List catalog ingredients",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cmd.Context(), opts)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			list := c.SearchIngredients(query)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
			for _, ing := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ing.ID, ing.Name, ing.Category)
			}
			return w.Flush()
		},
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRanking(out io.Writer, results []matching.Ranked) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MATCH\tID\tTITLE\tTIME\tMISSING")
	for _, item := range results {
		missing := make([]string, 0)
		for _, d := range item.Match.Missing() {
			missing = append(missing, d.Name)
		}
		fmt.Fprintf(w, "%d%%\t%s\t%s\t%dm\t%s\n",
			item.Match.Percent, item.Recipe.ID, item.Recipe.Title, item.Recipe.TimeMinutes,
			strings.Join(missing, ", "))
	}
	return w.Flush()
}

func writeRecipe(out io.Writer, r *catalog.Recipe, result matching.MatchResult) error {
	fmt.Fprintf(out, "%s (%s)\n", r.Title, r.ID)
	fmt.Fprintf(out, "category: %s  time: %dm  servings: %d  match: %d%%\n\n",
		r.Category, r.TimeMinutes, r.Servings, result.Percent)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tINGREDIENT\tSUBSTITUTE")
	for _, d := range result.Details {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Status, d.Name, d.SubstituteName)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(r.Steps) > 0 {
		fmt.Fprintln(out)
	}
	for i, s := range r.Steps {
		if s.Minutes > 0 {
			fmt.Fprintf(out, "%d. %s [%s]\n", i+1, s.Text, s.Duration())
			continue
		}
		fmt.Fprintf(out, "%d. %s\n", i+1, s.Text)
	}
	common.LogDebug("食譜已顯示", zap.String("recipe_id", r.ID), zap.Int("percent", result.Percent))
	return nil
}
