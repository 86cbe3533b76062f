package models

import "strings"

// Polarity classifies which half of a composed prompt a keyword belongs to
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// negativeMarkers mark a category as negative when found in its key.
// The Russian marker matches the shipped keyword library.
var negativeMarkers = []string{"negative", "негатив"}

// PolarityOf derives a category's polarity from its key
func PolarityOf(categoryKey string) Polarity {
	lower := strings.ToLower(categoryKey)
	for _, marker := range negativeMarkers {
		if strings.Contains(lower, marker) {
			return Negative
		}
	}
	return Positive
}

// CategoryDisplayName strips a dotted ordering prefix ("1.Fantasy" -> "Fantasy")
func CategoryDisplayName(categoryKey string) string {
	if _, name, ok := strings.Cut(categoryKey, "."); ok {
		return name
	}
	return categoryKey
}

// Category is one group of the keyword catalog
type Category struct {
	Key      string   // lookup key as written in the file, prefix included
	Name     string   // display name
	Polarity Polarity
}

// Keyword is a single selectable term of the catalog
type Keyword struct {
	Category    string   `json:"category"`
	Word        string   `json:"word"`
	Translation string   `json:"translation,omitempty"`
	Effect      string   `json:"effect,omitempty"`
	Type        string   `json:"type,omitempty"`
	Polarity    Polarity `json:"polarity"`
}

// Key returns the selection key of the keyword
func (k Keyword) Key() SelectionKey {
	return SelectionKey{Category: k.Category, Word: k.Word}
}

// IsPositive reports whether the keyword contributes to the positive prompt
func (k Keyword) IsPositive() bool {
	return k.Polarity != Negative
}

// FilterValue is the text matched by keyword searches
func (k Keyword) FilterValue() string {
	if k.Translation == "" {
		return k.Word
	}
	return k.Word + " " + k.Translation
}

// SelectionKey identifies a keyword across categories
type SelectionKey struct {
	Category string
	Word     string
}
