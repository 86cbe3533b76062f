package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/validation"
)

// DefaultKeywordsFile is the file name of the keyword catalog
const DefaultKeywordsFile = "keyword_library.json"

// Catalog is the keyword library in file order
type Catalog struct {
	Categories []models.Category
	Entries    map[string][]models.Keyword // keyed by category key
	Skipped    []SkippedEntry
}

// SkippedEntry describes a catalog entry that was not loaded
type SkippedEntry struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
	Reason   string `json:"reason"`
}

// NewCatalog returns an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{Entries: make(map[string][]models.Keyword)}
}

// Len returns the number of loaded keywords
func (c *Catalog) Len() int {
	n := 0
	for _, entries := range c.Entries {
		n += len(entries)
	}
	return n
}

// LoadKeywords reads keyword_library.json. The file is never written by this
// program. A missing file yields an empty catalog and a nil error; malformed
// JSON yields an empty catalog and a ParseError. Entries that are not objects,
// lack a word or repeat a word within their category are skipped and recorded
// in Catalog.Skipped.
func LoadKeywords(path string, logger zerolog.Logger) (*Catalog, error) {
	logger = logger.With().Str("file", path).Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Msg("keyword library not found, starting with an empty catalog")
			return NewCatalog(), nil
		}
		logger.Error().Err(err).Msg("failed to read keyword library")
		return NewCatalog(), errors.PersistenceError("read "+path, err)
	}

	catalog, err := ParseKeywords(data)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse keyword library")
		return NewCatalog(), errors.ParseError(path, err)
	}

	for _, s := range catalog.Skipped {
		logger.Warn().Str("category", s.Category).Int("index", s.Index).Str("reason", s.Reason).Msg("skipping keyword entry")
	}
	logger.Info().Int("categories", len(catalog.Categories)).Int("keywords", catalog.Len()).Msg("loaded keyword library")
	return catalog, nil
}

// ParseKeywords decodes a keyword library document, keeping category order
func ParseKeywords(data []byte) (*Catalog, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := validation.ValidateKeywordsDocument(doc); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	catalog := NewCatalog()
	keywords, ok := raw["keywords"]
	if !ok || string(keywords) == "null" {
		return catalog, nil
	}

	// encoding/json maps lose key order, and category order is what the
	// builder shows, so the object is walked token by token.
	dec := json.NewDecoder(bytes.NewReader(keywords))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in keywords object", tok)
		}

		var items []json.RawMessage
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("category %q: %w", key, err)
		}

		if _, seen := catalog.Entries[key]; !seen {
			catalog.Categories = append(catalog.Categories, models.Category{
				Key:      key,
				Name:     models.CategoryDisplayName(key),
				Polarity: models.PolarityOf(key),
			})
		}
		catalog.Entries[key] = parseCategory(key, items, &catalog.Skipped)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return catalog, nil
}

func parseCategory(key string, items []json.RawMessage, skipped *[]SkippedEntry) []models.Keyword {
	polarity := models.PolarityOf(key)
	entries := make([]models.Keyword, 0, len(items))
	seen := make(map[string]bool, len(items))

	for i, item := range items {
		var fields map[string]interface{}
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			*skipped = append(*skipped, SkippedEntry{Category: key, Index: i, Reason: "entry is not an object"})
			continue
		}

		word := strings.TrimSpace(stringField(fields, "word"))
		if word == "" {
			*skipped = append(*skipped, SkippedEntry{Category: key, Index: i, Reason: "missing word"})
			continue
		}
		if seen[word] {
			*skipped = append(*skipped, SkippedEntry{Category: key, Index: i, Reason: fmt.Sprintf("duplicate word %q", word)})
			continue
		}
		seen[word] = true

		translation := stringField(fields, "translate")
		if translation == "" {
			translation = stringField(fields, "trans")
		}

		entries = append(entries, models.Keyword{
			Category:    key,
			Word:        word,
			Translation: translation,
			Effect:      stringField(fields, "effect"),
			Type:        stringField(fields, "type"),
			Polarity:    polarity,
		})
	}

	return entries
}

func stringField(fields map[string]interface{}, name string) string {
	if s, ok := fields[name].(string); ok {
		return s
	}
	return ""
}
