package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/service"
)

func (a *app) keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Browse the keyword catalog",
	}
	cmd.AddCommand(a.keywordCategoriesCmd(), a.keywordListCmd(), a.keywordSearchCmd())
	return cmd
}

func (a *app) keywordCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List keyword categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			categories := a.svc.Keywords().Categories()
			if len(categories) == 0 {
				fmt.Fprintln(w, "No keyword categories")
				return nil
			}
			fmt.Fprintf(w, "%-24s %-28s %-9s %s\n", "Name", "Key", "Polarity", "Keywords")
			fmt.Fprintln(w, strings.Repeat("-", 72))
			for _, c := range categories {
				fmt.Fprintf(w, "%-24s %-28s %-9s %d\n",
					clip(c.Name, 24), clip(c.Key, 28), c.Polarity, len(a.svc.Keywords().EntriesFor(c.Key)))
			}
			return nil
		},
	}
}

func (a *app) keywordListCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list <category>",
		Short: "List the keywords of a category",
		Long:  "List the keywords of a category, given by key (\"1.Качество\") or name (\"Качество\").",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.hasKeywordCategory(args[0]) {
				return a.fail(errors.NotFoundError("keyword category " + args[0]))
			}
			writeKeywords(cmd.OutOrStdout(), a.svc.Keywords().FilterEntries(args[0], filter), false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "text to look for in word or translation")
	return cmd
}

func (a *app) keywordSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search across all keyword categories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := a.svc.Keywords().Search(strings.Join(args, " "))
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			writeKeywords(cmd.OutOrStdout(), results, true)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results, 0 for all")
	return cmd
}

func (a *app) hasKeywordCategory(name string) bool {
	for _, c := range a.svc.Keywords().Categories() {
		if c.Key == name || c.Name == name {
			return true
		}
	}
	return false
}

func writeKeywords(w io.Writer, keywords []models.Keyword, withCategory bool) {
	if len(keywords) == 0 {
		fmt.Fprintln(w, "No keywords found")
		return
	}
	for _, k := range keywords {
		line := k.Word
		if withCategory {
			line = models.CategoryDisplayName(k.Category) + ":" + k.Word
		}
		if k.Translation != "" {
			line += " · " + k.Translation
		}
		if k.Polarity == models.Negative {
			line += " (-)"
		}
		fmt.Fprintln(w, line)
	}
}

func (a *app) composeCmd() *cobra.Command {
	var copyResult bool

	cmd := &cobra.Command{
		Use:   "compose <category:word>...",
		Short: "Compose a prompt from keywords",
		Long: `Check the given keywords and print the composed prompt, positive keywords
first and negative keywords after. The category may be a key or a name.`,
		Example: `  prompt-genie compose Качество:masterpiece "Стиль:oil painting" Негатив:blurry`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, unknown, err := a.svc.Compose(args)
			if err != nil {
				return a.fail(err)
			}
			for _, ref := range unknown {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: unknown keyword %s\n", ref)
			}
			if preview == service.PreviewPlaceholder {
				return a.fail(errors.NewAppError(errors.ErrCodeInvalidInput, "no known keywords given"))
			}

			fmt.Fprintln(cmd.OutOrStdout(), preview)
			if !copyResult {
				return nil
			}
			msg, err := a.svc.CopyPreview()
			if err != nil {
				// the preview is already printed
				fmt.Fprintln(cmd.ErrOrStderr(), a.errHandler.FormatError(err))
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyResult, "copy", false, "also copy the result to the clipboard")
	return cmd
}
