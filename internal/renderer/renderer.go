package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dpshade/prompt-genie/internal/models"
)

// Export formats
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMessages = "messages"
)

// Renderer handles template rendering
type Renderer struct {
	template models.Template
}

// NewRenderer creates a new renderer instance
func NewRenderer(tmpl models.Template) *Renderer {
	return &Renderer{template: tmpl}
}

// RenderText renders the template's prompt as plain text
func (r *Renderer) RenderText() string {
	return r.template.Prompt
}

// RenderMarkdown renders the template as a markdown document for previews.
// A prompt containing the ||| delimiter is shown as positive and negative
// blocks.
func (r *Renderer) RenderMarkdown() string {
	t := r.template
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t.Name)
	fmt.Fprintf(&b, "**Category:** %s\n\n", t.Category)
	if t.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Summary)
	}

	if strings.Contains(t.Prompt, models.PromptDelimiter) {
		fmt.Fprintf(&b, "## Positive\n\n```\n%s\n```\n\n", t.PositivePrompt())
		fmt.Fprintf(&b, "## Negative\n\n```\n%s\n```\n\n", t.NegativePrompt())
	} else {
		fmt.Fprintf(&b, "## Prompt\n\n```\n%s\n```\n\n", t.Prompt)
	}

	var dates []string
	if !t.CreatedAt.IsZero() {
		dates = append(dates, "Created "+t.CreatedAt.Format("2006-01-02 15:04"))
	}
	if !t.LastModified.IsZero() {
		dates = append(dates, "modified "+t.LastModified.Format("2006-01-02 15:04"))
	}
	if len(dates) > 0 {
		fmt.Fprintf(&b, "_%s_\n", strings.Join(dates, ", "))
	}

	return b.String()
}

// RenderJSON renders the prompt as a JSON message array for LLM APIs
func (r *Renderer) RenderJSON() (string, error) {
	messages := r.Messages()

	jsonBytes, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	return string(jsonBytes), nil
}

// Messages returns the chat messages for the template
func (r *Renderer) Messages() []Message {
	return []Message{
		{
			Role:    "user",
			Content: r.RenderText(),
		},
	}
}

// Message represents a chat message for LLM APIs
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// exportEntry is the YAML view of a template, keyed like the library file
type exportEntry struct {
	Category     string `yaml:"category"`
	Title        string `yaml:"title_ru"`
	Description  string `yaml:"description_ru"`
	Prompt       string `yaml:"prompt_combined_en"`
	CreatedAt    string `yaml:"created_at,omitempty"`
	LastModified string `yaml:"last_modified,omitempty"`
}

type messagesEntry struct {
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// Export encodes templates in the given format: the library's own JSON shape,
// YAML with the same keys, or one chat message list per template.
func Export(templates []models.Template, format string) ([]byte, error) {
	if templates == nil {
		templates = []models.Template{}
	}

	switch format {
	case FormatJSON:
		return encodeJSON(struct {
			Themes []models.Template `json:"themes"`
		}{Themes: templates})

	case FormatMessages:
		entries := make([]messagesEntry, len(templates))
		for i, t := range templates {
			entries[i] = messagesEntry{Title: t.Name, Messages: NewRenderer(t).Messages()}
		}
		return encodeJSON(entries)

	case FormatYAML:
		entries := make([]exportEntry, len(templates))
		for i, t := range templates {
			entries[i] = exportEntry{
				Category:    t.Category,
				Title:       t.Name,
				Description: t.Summary,
				Prompt:      t.Prompt,
			}
			if !t.CreatedAt.IsZero() {
				entries[i].CreatedAt = models.FormatTimestamp(t.CreatedAt)
			}
			if !t.LastModified.IsZero() {
				entries[i].LastModified = models.FormatTimestamp(t.LastModified)
			}
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]exportEntry{"themes": entries}); err != nil {
			return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return buf.Bytes(), nil
}
