package service

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"

	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/storage"
)

// PreviewPlaceholder is what RenderPreview returns when nothing is selected
const PreviewPlaceholder = "Select keywords"

// KeywordModel exposes the keyword catalog by category and tracks which
// keywords are checked. The catalog is read-only; the selection lives in
// memory only. It is not safe for concurrent use.
type KeywordModel struct {
	catalog *storage.Catalog
	path    string

	byName    map[string]string // display name -> category key
	wordIndex map[string]string // word -> first category key containing it

	selected map[models.SelectionKey]bool
	order    []models.SelectionKey

	logger zerolog.Logger
}

// NewKeywordModel creates a model with an empty catalog
func NewKeywordModel(logger zerolog.Logger) *KeywordModel {
	m := &KeywordModel{
		selected: make(map[models.SelectionKey]bool),
		logger:   logger.With().Str("component", "keyword_model").Logger(),
	}
	m.setCatalog(storage.NewCatalog())
	return m
}

// Load reads the catalog from path and clears the selection. On error the
// catalog is empty and the error is returned for reporting.
func (m *KeywordModel) Load(path string) error {
	m.path = path
	catalog, err := storage.LoadKeywords(path, m.logger)
	m.setCatalog(catalog)
	m.ClearAll()
	return err
}

// Reload re-reads the catalog from the path given to Load. Checked keywords
// that still exist stay checked. On error the current catalog is kept.
func (m *KeywordModel) Reload() error {
	if m.path == "" {
		return nil
	}
	catalog, err := storage.LoadKeywords(m.path, m.logger)
	if err != nil {
		return err
	}
	m.setCatalog(catalog)

	kept := m.order[:0]
	for _, key := range m.order {
		if m.lookup(key.Category, key.Word) != nil {
			kept = append(kept, key)
		} else {
			delete(m.selected, key)
		}
	}
	m.order = kept

	m.logger.Info().Int("selected", len(m.order)).Msg("reloaded keyword catalog")
	return nil
}

// Path returns the catalog file path
func (m *KeywordModel) Path() string {
	return m.path
}

// Catalog returns the loaded catalog
func (m *KeywordModel) Catalog() *storage.Catalog {
	return m.catalog
}

func (m *KeywordModel) setCatalog(catalog *storage.Catalog) {
	m.catalog = catalog
	m.byName = make(map[string]string, len(catalog.Categories))
	m.wordIndex = make(map[string]string)

	for _, c := range catalog.Categories {
		if _, exists := m.byName[c.Name]; !exists {
			m.byName[c.Name] = c.Key
		}
		for _, k := range catalog.Entries[c.Key] {
			if _, exists := m.wordIndex[k.Word]; !exists {
				m.wordIndex[k.Word] = c.Key
			}
		}
	}
}

// Categories returns the catalog's categories in file order
func (m *KeywordModel) Categories() []models.Category {
	out := make([]models.Category, len(m.catalog.Categories))
	copy(out, m.catalog.Categories)
	return out
}

// ListCategories returns the display names of the categories in file order.
// Names are not unique: "1.Fantasy" and "2.Fantasy" both show as "Fantasy"
// and the name resolves to the first of them. Use Categories for the keys.
func (m *KeywordModel) ListCategories() []string {
	names := make([]string, len(m.catalog.Categories))
	for i, c := range m.catalog.Categories {
		names[i] = c.Name
	}
	return names
}

// resolveCategory maps a category key or display name to its key. A key
// always wins; a name shared by several categories maps to the first in file order.
func (m *KeywordModel) resolveCategory(category string) (string, bool) {
	if _, ok := m.catalog.Entries[category]; ok {
		return category, true
	}
	key, ok := m.byName[category]
	return key, ok
}

// EntriesFor returns the keywords of a category, given by key or display
// name (see resolveCategory). An unknown category yields an empty slice and
// a warning.
func (m *KeywordModel) EntriesFor(category string) []models.Keyword {
	key, ok := m.resolveCategory(category)
	if !ok {
		m.logger.Warn().Str("category", category).Msg("unknown keyword category")
		return []models.Keyword{}
	}
	entries := m.catalog.Entries[key]
	out := make([]models.Keyword, len(entries))
	copy(out, entries)
	return out
}

// FilterEntries returns the keywords of a category whose word or translation
// contains text, case-insensitively. Empty text returns every entry.
func (m *KeywordModel) FilterEntries(category, text string) []models.Keyword {
	entries := m.EntriesFor(category)
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return entries
	}

	filtered := entries[:0]
	for _, k := range entries {
		if strings.Contains(strings.ToLower(k.Word), needle) ||
			strings.Contains(strings.ToLower(k.Translation), needle) {
			filtered = append(filtered, k)
		}
	}
	return filtered
}

// Search fuzzy-matches query against every keyword's word and translation,
// best match first
func (m *KeywordModel) Search(query string) []models.Keyword {
	var all []models.Keyword
	for _, c := range m.catalog.Categories {
		all = append(all, m.catalog.Entries[c.Key]...)
	}
	if strings.TrimSpace(query) == "" {
		return all
	}

	targets := make([]string, len(all))
	for i, k := range all {
		targets[i] = k.FilterValue()
	}

	matches := fuzzy.Find(query, targets)
	results := make([]models.Keyword, 0, len(matches))
	for _, match := range matches {
		results = append(results, all[match.Index])
	}
	return results
}

func (m *KeywordModel) lookup(categoryKey, word string) *models.Keyword {
	entries := m.catalog.Entries[categoryKey]
	for i := range entries {
		if entries[i].Word == word {
			return &entries[i]
		}
	}
	return nil
}

// SetChecked marks a keyword as checked or unchecked. It reports whether the
// keyword exists; unknown keywords leave the selection untouched.
func (m *KeywordModel) SetChecked(category, word string, checked bool) bool {
	key, ok := m.resolveCategory(category)
	if !ok || m.lookup(key, word) == nil {
		m.logger.Debug().Str("category", category).Str("word", word).Msg("ignoring selection of unknown keyword")
		return false
	}

	sk := models.SelectionKey{Category: key, Word: word}
	if checked {
		if !m.selected[sk] {
			m.selected[sk] = true
			m.order = append(m.order, sk)
		}
		return true
	}

	if m.selected[sk] {
		delete(m.selected, sk)
		for i, k := range m.order {
			if k == sk {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	return true
}

// Toggle flips a keyword's checked state and returns the new state
func (m *KeywordModel) Toggle(category, word string) bool {
	checked := !m.IsChecked(category, word)
	if !m.SetChecked(category, word, checked) {
		return false
	}
	return checked
}

// IsChecked reports whether a keyword is currently checked
func (m *KeywordModel) IsChecked(category, word string) bool {
	key, ok := m.resolveCategory(category)
	if !ok {
		return false
	}
	return m.selected[models.SelectionKey{Category: key, Word: word}]
}

// IsPositive reports the polarity of the first category containing word.
// Unknown words are positive.
func (m *KeywordModel) IsPositive(word string) bool {
	key, ok := m.wordIndex[word]
	if !ok {
		return true
	}
	return models.PolarityOf(key) == models.Positive
}

// Selected returns the checked keywords in the order they were checked,
// split by the polarity of their own category
func (m *KeywordModel) Selected() (positive, negative []models.Keyword) {
	for _, sk := range m.order {
		k := m.lookup(sk.Category, sk.Word)
		if k == nil {
			continue
		}
		if k.IsPositive() {
			positive = append(positive, *k)
		} else {
			negative = append(negative, *k)
		}
	}
	return positive, negative
}

// SelectedCount returns the number of checked keywords
func (m *KeywordModel) SelectedCount() int {
	return len(m.order)
}

// RenderPreview renders the checked keywords as a positive section followed
// by a negative section. With nothing checked it returns PreviewPlaceholder.
func (m *KeywordModel) RenderPreview() string {
	positive, negative := m.Selected()

	var lines []string
	if len(positive) > 0 {
		lines = append(lines, "Positive:", joinWords(positive), "")
	}
	if len(negative) > 0 {
		lines = append(lines, "Negative:", joinWords(negative))
	}

	preview := strings.TrimSpace(strings.Join(lines, "\n"))
	if preview == "" {
		return PreviewPlaceholder
	}
	return preview
}

// ComposedPrompt joins the selection into a single prompt using the |||
// delimiter between the positive and negative halves
func (m *KeywordModel) ComposedPrompt() string {
	positive, negative := m.Selected()
	if len(negative) == 0 {
		return joinWords(positive)
	}
	return joinWords(positive) + " " + models.PromptDelimiter + " " + joinWords(negative)
}

// ClearAll unchecks every keyword
func (m *KeywordModel) ClearAll() {
	m.selected = make(map[models.SelectionKey]bool)
	m.order = nil
}

func joinWords(keywords []models.Keyword) string {
	words := make([]string, len(keywords))
	for i, k := range keywords {
		words[i] = k.Word
	}
	return strings.Join(words, ", ")
}
