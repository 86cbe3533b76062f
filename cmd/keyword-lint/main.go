// Command keyword-lint checks a keyword library file and reports entries the
// keyword builder will skip, words shared by positive and negative categories
// and entries without a translation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-genie/internal/config"
	"github.com/dpshade/prompt-genie/internal/logging"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/storage"
)

// report is the outcome of checking one keyword library
type report struct {
	Categories   []models.Category
	Counts       map[string]int
	Skipped      []storage.SkippedEntry
	Conflicts    []conflict
	Untranslated []models.SelectionKey
}

// conflict is a word checked as both a positive and a negative keyword
type conflict struct {
	Word     string
	Positive []string
	Negative []string
}

// Problems counts the findings that make the lint fail. Missing translations
// are only reported.
func (r report) Problems() int {
	return len(r.Skipped) + len(r.Conflicts)
}

func lint(path string, logger zerolog.Logger) (report, error) {
	if _, err := os.Stat(path); err != nil {
		return report{}, err
	}
	catalog, err := storage.LoadKeywords(path, logger)
	if err != nil {
		return report{}, err
	}

	r := report{
		Categories: catalog.Categories,
		Counts:     make(map[string]int, len(catalog.Categories)),
		Skipped:    catalog.Skipped,
	}

	positive := make(map[string][]string)
	negative := make(map[string][]string)
	for _, c := range catalog.Categories {
		entries := catalog.Entries[c.Key]
		r.Counts[c.Key] = len(entries)
		for _, k := range entries {
			if k.Polarity == models.Negative {
				negative[k.Word] = append(negative[k.Word], c.Name)
			} else {
				positive[k.Word] = append(positive[k.Word], c.Name)
			}
			if strings.TrimSpace(k.Translation) == "" {
				r.Untranslated = append(r.Untranslated, k.Key())
			}
		}
	}

	for word, neg := range negative {
		if pos, ok := positive[word]; ok {
			r.Conflicts = append(r.Conflicts, conflict{Word: word, Positive: pos, Negative: neg})
		}
	}
	sort.Slice(r.Conflicts, func(i, j int) bool { return r.Conflicts[i].Word < r.Conflicts[j].Word })
	return r, nil
}

func writeReport(w io.Writer, path string, r report, showUntranslated bool) {
	fmt.Fprintf(w, "%s\n\n", path)
	for _, c := range r.Categories {
		fmt.Fprintf(w, "  %-28s %-9s %d\n", c.Key, c.Polarity, r.Counts[c.Key])
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped entries (%d):\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s[%d]: %s\n", s.Category, s.Index, s.Reason)
		}
	}

	if len(r.Conflicts) > 0 {
		fmt.Fprintf(w, "\nWords in both positive and negative categories (%d):\n", len(r.Conflicts))
		for _, c := range r.Conflicts {
			fmt.Fprintf(w, "  %s: +%s -%s\n", c.Word, strings.Join(c.Positive, ","), strings.Join(c.Negative, ","))
		}
	}

	if showUntranslated && len(r.Untranslated) > 0 {
		fmt.Fprintf(w, "\nWithout translation (%d):\n", len(r.Untranslated))
		for _, k := range r.Untranslated {
			fmt.Fprintf(w, "  %s:%s\n", models.CategoryDisplayName(k.Category), k.Word)
		}
	}

	if r.Problems() == 0 {
		fmt.Fprintln(w, "\nOK")
	}
}

func newRootCmd() *cobra.Command {
	var verbose, showUntranslated bool

	cmd := &cobra.Command{
		Use:   "keyword-lint [file]",
		Short: "Check a keyword library file",
		Long: `Check a keyword library file. Without an argument the library of the
default data directory is checked. Exits non-zero when entries are skipped
or a word appears with both polarities.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Default().KeywordsPath()
			if len(args) == 1 {
				path = args[0]
			}
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}

			level := zerolog.ErrorLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger := logging.NewWithWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}, level)

			r, err := lint(path, logger)
			if err != nil {
				return err
			}
			writeReport(cmd.OutOrStdout(), path, r, showUntranslated)
			if n := r.Problems(); n > 0 {
				return fmt.Errorf("%d problem(s) found", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log while loading")
	cmd.Flags().BoolVar(&showUntranslated, "untranslated", false, "list entries without a translation")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
