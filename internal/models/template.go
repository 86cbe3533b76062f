package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultCategory is used for templates stored without a category
	DefaultCategory = "Uncategorized"
	// DefaultDescription is used for templates stored without a description
	DefaultDescription = "No description"
	// PromptDelimiter separates the positive and negative halves of a prompt
	// by convention. The store never splits on it.
	PromptDelimiter = "|||"
)

// JSON keys of a template entry in theme_prompts.json. The file format is
// shared with other tools, so these names are fixed.
const (
	keyCategory     = "category"
	keyTitle        = "title_ru"
	keyDescription  = "description_ru"
	keyPrompt       = "prompt_combined_en"
	keyCreatedAt    = "created_at"
	keyLastModified = "last_modified"
)

// Template represents one themed prompt in the template library
type Template struct {
	// ID is derived in memory when the template is loaded or created and
	// is never written to disk.
	ID string

	Category     string
	Name         string // title_ru
	Summary      string // description_ru
	Prompt       string // prompt_combined_en
	CreatedAt    time.Time
	LastModified time.Time

	// Extra holds keys this program does not manage (for example
	// negative_prompt written by older editors) so they survive a save.
	Extra map[string]json.RawMessage
}

// TemplateDraft holds the user-editable fields of a template
type TemplateDraft struct {
	Category    string
	Title       string
	Description string
	Prompt      string
}

// Normalize trims surrounding whitespace and fills in default category and description
func (t *Template) Normalize() {
	t.Category = strings.TrimSpace(t.Category)
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Prompt = strings.TrimSpace(t.Prompt)

	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Summary == "" {
		t.Summary = DefaultDescription
	}
}

// Apply copies the draft's fields onto the template
func (t *Template) Apply(d TemplateDraft) {
	t.Category = d.Category
	t.Name = d.Title
	t.Summary = d.Description
	t.Prompt = d.Prompt
	t.Normalize()
}

// Draft returns the user-editable fields of the template
func (t Template) Draft() TemplateDraft {
	return TemplateDraft{
		Category:    t.Category,
		Title:       t.Name,
		Description: t.Summary,
		Prompt:      t.Prompt,
	}
}

// Clone returns a deep copy of the template
func (t Template) Clone() Template {
	if t.Extra != nil {
		extra := make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			extra[k] = append(json.RawMessage(nil), v...)
		}
		t.Extra = extra
	}
	return t
}

// PositivePrompt returns the text before the ||| delimiter, or the whole prompt
func (t Template) PositivePrompt() string {
	positive, _, _ := strings.Cut(t.Prompt, PromptDelimiter)
	return strings.TrimSpace(positive)
}

// NegativePrompt returns the text after the ||| delimiter, if any
func (t Template) NegativePrompt() string {
	_, negative, _ := strings.Cut(t.Prompt, PromptDelimiter)
	return strings.TrimSpace(negative)
}

// Matches reports whether the template passes the browser filters: an exact
// category match (empty matches all) and a case-insensitive substring of the
// title or description (empty matches all).
func (t Template) Matches(filterText, filterCategory string) bool {
	if filterCategory != "" && t.Category != filterCategory {
		return false
	}
	if filterText == "" {
		return true
	}
	needle := strings.ToLower(filterText)
	return strings.Contains(strings.ToLower(t.Name), needle) ||
		strings.Contains(strings.ToLower(t.Summary), needle)
}

// UnmarshalJSON decodes a theme entry, keeping unknown keys in Extra
func (t *Template) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Template
	fields := []struct {
		key string
		dst *string
	}{
		{keyCategory, &out.Category},
		{keyTitle, &out.Name},
		{keyDescription, &out.Summary},
		{keyPrompt, &out.Prompt},
	}
	for _, f := range fields {
		value, ok := raw[f.key]
		if !ok {
			continue
		}
		delete(raw, f.key)
		if string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, f.dst); err != nil {
			return fmt.Errorf("field %q: %w", f.key, err)
		}
	}

	for _, ts := range []struct {
		key string
		dst *time.Time
	}{
		{keyCreatedAt, &out.CreatedAt},
		{keyLastModified, &out.LastModified},
	} {
		value, ok := raw[ts.key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil || s == "" {
			// Unparseable timestamps are kept verbatim rather than lost.
			continue
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			continue
		}
		*ts.dst = parsed
		delete(raw, ts.key)
	}

	if len(raw) > 0 {
		out.Extra = raw
	}
	*t = out
	return nil
}

// MarshalJSON encodes the template with the managed keys first, in a fixed
// order, followed by any preserved keys in name order.
func (t Template) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, value interface{}) error {
		encoded, err := marshalNoEscape(value)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := marshalNoEscape(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	managed := []struct {
		key   string
		value interface{}
	}{
		{keyCategory, t.Category},
		{keyTitle, t.Name},
		{keyDescription, t.Summary},
		{keyPrompt, t.Prompt},
	}
	for _, f := range managed {
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}
	if !t.CreatedAt.IsZero() {
		if err := write(keyCreatedAt, FormatTimestamp(t.CreatedAt)); err != nil {
			return nil, err
		}
	}
	if !t.LastModified.IsZero() {
		if err := write(keyLastModified, FormatTimestamp(t.LastModified)); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(t.Extra))
	for k := range t.Extra {
		switch k {
		case keyCategory, keyTitle, keyDescription, keyPrompt:
			continue
		case keyCreatedAt:
			if !t.CreatedAt.IsZero() {
				continue
			}
		case keyLastModified:
			if !t.LastModified.IsZero() {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, t.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts RFC 3339 as well as the zone-less ISO-8601 forms
// older versions of the library were written with.
func ParseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormatTimestamp renders a timestamp the way the store writes it
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// Implement list.Item interface for bubbles list component

// FilterValue returns the value used for filtering in lists
func (t Template) FilterValue() string {
	return cleanString(t.Name + " " + t.Summary)
}

// Title satisfies the list.Item interface
func (t Template) Title() string {
	return cleanString(t.Name)
}

// Description satisfies the list.Item interface
func (t Template) Description() string {
	parts := []string{cleanString(t.Category)}

	if t.Summary != "" {
		summary := cleanString(t.Summary)
		if r := []rune(summary); len(r) > 60 {
			summary = string(r[:57]) + "..."
		}
		parts = append(parts, summary)
	}

	if !t.LastModified.IsZero() {
		parts = append(parts, "Last edited: "+t.LastModified.Format("2006-01-02 15:04"))
	}

	return strings.Join(parts, " • ")
}

// cleanString removes characters that break single-line rendering
func cleanString(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r >= 32 && r != 127:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
