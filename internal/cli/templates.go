package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/renderer"
	"github.com/dpshade/prompt-genie/internal/storage"
	"github.com/dpshade/prompt-genie/internal/validation"
)

// templateEntry is the list view of a template for json and yaml output
type templateEntry struct {
	ID           string `json:"id" yaml:"id"`
	Category     string `json:"category" yaml:"category"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	LastModified string `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

func newTemplateEntry(t models.Template) templateEntry {
	e := templateEntry{
		ID:          t.ID,
		Category:    t.Category,
		Title:       t.Name,
		Description: t.Summary,
	}
	if !t.LastModified.IsZero() {
		e.LastModified = models.FormatTimestamp(t.LastModified)
	}
	return e
}

func (a *app) listCmd() *cobra.Command {
	var filter, category, format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Long: `List the templates of the library.

--filter matches title or description case-insensitively; --category must
match a category exactly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateOptions(validation.SchemaListTemplates, map[string]interface{}{
				"filter":   filter,
				"category": category,
				"format":   format,
			}); err != nil {
				return a.fail(err)
			}

			var templates []models.Template
			for t := range a.svc.Templates().List(filter, category) {
				templates = append(templates, t)
			}
			return writeTemplateList(cmd.OutOrStdout(), templates, format)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "text to look for in title or description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only templates of this category")
	cmd.Flags().StringVarP(&format, "format", "o", "table", "output format: table, json, yaml or titles")
	return cmd
}

func writeTemplateList(w io.Writer, templates []models.Template, format string) error {
	entries := make([]templateEntry, len(templates))
	for i, t := range templates {
		entries[i] = newTemplateEntry(t)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "titles":
		for _, t := range templates {
			fmt.Fprintln(w, t.Name)
		}
	default:
		if len(templates) == 0 {
			fmt.Fprintln(w, "No templates found")
			return nil
		}
		fmt.Fprintf(w, "%-8s %-20s %-32s %s\n", "ID", "Category", "Title", "Modified")
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, t := range templates {
			modified := ""
			if !t.LastModified.IsZero() {
				modified = t.LastModified.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%-8s %-20s %-32s %s\n",
				shortID(t.ID), clip(t.Category, 20), clip(t.Name, 32), modified)
		}
	}
	return nil
}

// shortID is the id prefix shown in tables; Resolve accepts it back
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func (a *app) showCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Show one template",
		Long:  "Show a template given by id, unique id prefix or title.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.svc.Templates().Resolve(args[0])
			if err != nil {
				return a.fail(err)
			}

			w := cmd.OutOrStdout()
			r := renderer.NewRenderer(t)
			switch format {
			case "markdown":
				fmt.Fprint(w, r.RenderMarkdown())
			case "json":
				data, err := json.MarshalIndent(t, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(w, string(data))
			case "text":
				writeTemplateText(w, t)
			default:
				return a.fail(errors.NewAppError(errors.ErrCodeInvalidInput,
					fmt.Sprintf("unknown format %q (use text, markdown or json)", format)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text, markdown or json")
	return cmd
}

func writeTemplateText(w io.Writer, t models.Template) {
	fmt.Fprintf(w, "ID: %s\n", t.ID)
	fmt.Fprintf(w, "Title: %s\n", t.Name)
	fmt.Fprintf(w, "Category: %s\n", t.Category)
	fmt.Fprintf(w, "Description: %s\n", t.Summary)
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
	}
	if !t.LastModified.IsZero() {
		fmt.Fprintf(w, "Modified: %s\n", t.LastModified.Format("2006-01-02 15:04"))
	}
	if strings.Contains(t.Prompt, models.PromptDelimiter) {
		fmt.Fprintf(w, "\nPositive:\n%s\n\nNegative:\n%s\n", t.PositivePrompt(), t.NegativePrompt())
		return
	}
	fmt.Fprintf(w, "\nPrompt:\n%s\n", t.Prompt)
}

// draftFlags are the template fields settable from the command line
type draftFlags struct {
	category    string
	title       string
	description string
	prompt      string
	promptFile  string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.category, "category", "", "template category (default "+models.DefaultCategory+")")
	cmd.Flags().StringVar(&f.title, "title", "", "template title")
	cmd.Flags().StringVar(&f.description, "description", "", "short description")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "prompt text; use ||| between positive and negative")
	cmd.Flags().StringVar(&f.promptFile, "prompt-file", "", "read the prompt from a file, - for stdin")
	cmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
}

// readPrompt resolves --prompt-file into f.prompt
func (f *draftFlags) readPrompt(cmd *cobra.Command) error {
	if f.promptFile == "" {
		return nil
	}
	var (
		data []byte
		err  error
	)
	if f.promptFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(f.promptFile)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeFileNotFound, "cannot read prompt file").WithContext("path", f.promptFile)
	}
	f.prompt = string(data)
	return nil
}

// apply overlays the flags the user set onto draft
func (f *draftFlags) apply(cmd *cobra.Command, draft *models.TemplateDraft) {
	changed := cmd.Flags().Changed
	if changed("category") {
		draft.Category = f.category
	}
	if changed("title") {
		draft.Title = f.title
	}
	if changed("description") {
		draft.Description = f.description
	}
	if changed("prompt") || changed("prompt-file") {
		draft.Prompt = f.prompt
	}
}

func (a *app) createCmd() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template",
		Example: `  prompt-genie create --title "Дракон" --category Фэнтези \
    --prompt "red dragon, castle ||| blurry, lowres"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.readPrompt(cmd); err != nil {
				return a.fail(err)
			}
			var draft models.TemplateDraft
			flags.apply(cmd, &draft)

			t, err := a.svc.Templates().Create(draft)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created template %q (%s)\n", t.Name, shortID(t.ID))
			return nil
		},
	}
	flags.register(cmd)
	return mutating(cmd)
}

func (a *app) editCmd() *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "edit <ref>",
		Short: "Change fields of a template",
		Long:  "Change the fields given as flags; the others keep their values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.svc.Templates().Resolve(args[0])
			if err != nil {
				return a.fail(err)
			}
			if err := flags.readPrompt(cmd); err != nil {
				return a.fail(err)
			}

			draft := t.Draft()
			flags.apply(cmd, &draft)
			if draft == t.Draft() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change")
				return nil
			}

			updated, err := a.svc.Templates().Update(t.ID, draft)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated template %q\n", updated.Name)
			return nil
		},
	}
	flags.register(cmd)
	return mutating(cmd)
}

func (a *app) deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <ref>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.svc.Templates().Resolve(args[0])
			if err != nil {
				return a.fail(err)
			}
			if err := a.svc.Templates().Delete(t.ID); err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %q\n", t.Name)
			return nil
		},
	}
	return mutating(cmd)
}

func (a *app) copyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "copy <ref>",
		Short: "Copy a template's prompt to the clipboard",
		Long: `Copy a template's prompt to the clipboard. When no clipboard is available
the prompt is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			copyFn := a.svc.CopyTemplate
			if asJSON {
				copyFn = a.svc.CopyTemplateMessages
			}

			msg, err := copyFn(args[0])
			if errors.HasCode(err, errors.ErrCodeClipboardUnavailable) {
				// still give the user the text
				t, resolveErr := a.svc.Templates().Resolve(args[0])
				if resolveErr != nil {
					return a.fail(resolveErr)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), a.errHandler.FormatError(err))
				text := t.Prompt
				if asJSON {
					if text, err = renderer.NewRenderer(t).RenderJSON(); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "copy as a JSON chat-message array")
	return cmd
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List template categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts := make(map[string]int)
			for t := range a.svc.Templates().List("", "") {
				counts[t.Category]++
			}
			for _, c := range a.svc.Templates().Categories() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", c, counts[c])
			}
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var format, output, filter, category string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export templates",
		Long: `Export templates as the library's JSON, as YAML with the same keys, or as
JSON chat messages for LLM APIs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateOptions(validation.SchemaExport, map[string]interface{}{
				"format": format,
			}); err != nil {
				return a.fail(err)
			}

			data, err := a.svc.ExportTemplates(filter, category, format)
			if err != nil {
				return a.fail(err)
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return a.fail(errors.PersistenceError("create export directory", err))
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return a.fail(errors.PersistenceError("write export", err))
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", renderer.FormatJSON, "export format: json, yaml or messages")
	cmd.Flags().StringVar(&output, "output", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "text to look for in title or description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only templates of this category")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge templates from another library file",
		Long: `Merge the templates of another theme_prompts.json into the library.
Templates are matched by category and title; matches are skipped unless
--overwrite is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.svc.ImportTemplates(args[0], overwrite)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported: %d added, %d updated, %d skipped\n",
				result.Added, result.Updated, result.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace templates with the same category and title")
	return mutating(cmd)
}

func (a *app) backupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backups of the template library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := storage.ListBackups(a.svc.Templates().Path())
			if err != nil {
				return a.fail(errors.PersistenceError("list backups", err))
			}
			if len(backups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups yet")
				return nil
			}
			for _, b := range backups {
				fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}
}
