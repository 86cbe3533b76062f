package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keywordLibrary = `{
  "keywords": {
    "1.Качество": [
      {"word": "masterpiece", "translate": "шедевр"},
      {"word": "best quality", "translate": "лучшее качество"}
    ],
    "2.Стиль": [
      {"word": "oil painting", "translate": "масляная живопись"},
      {"word": "shared", "translate": "общий"}
    ],
    "9.Негатив": [
      {"word": "blurry", "translate": "размыто"},
      {"word": "shared", "translate": "общий"}
    ]
  }
}`

func newKeywordModel(t *testing.T, content string) (*KeywordModel, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keyword_library.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m := NewKeywordModel(zerolog.Nop())
	require.NoError(t, m.Load(path))
	return m, path
}

func TestKeywordModelCategories(t *testing.T) {
	m, _ := newKeywordModel(t, keywordLibrary)

	assert.Equal(t, []string{"Качество", "Стиль", "Негатив"}, m.ListCategories())
	assert.Len(t, m.EntriesFor("Стиль"), 2)
	assert.Len(t, m.EntriesFor("2.Стиль"), 2, "keys work as well as display names")
	assert.Empty(t, m.EntriesFor("Unknown"))
}

func TestKeywordModelDuplicateDisplayNames(t *testing.T) {
	m, _ := newKeywordModel(t, `{"keywords": {
		"1.Fantasy": [{"word": "dragon", "translate": "дракон"}],
		"2.Fantasy": [{"word": "elf", "translate": "эльф"}]
	}}`)

	assert.Equal(t, []string{"Fantasy", "Fantasy"}, m.ListCategories())
	categories := m.Categories()
	require.Len(t, categories, 2)
	assert.Equal(t, "2.Fantasy", categories[1].Key)

	assert.Equal(t, "dragon", m.EntriesFor("Fantasy")[0].Word, "a shared name picks the first category")
	assert.Equal(t, "elf", m.EntriesFor(categories[1].Key)[0].Word)

	require.True(t, m.SetChecked(categories[1].Key, "elf", true))
	assert.False(t, m.SetChecked("Fantasy", "elf", true))
	assert.Equal(t, "Positive:\nelf", m.RenderPreview())
}

func TestKeywordModelPreview(t *testing.T) {
	m, _ := newKeywordModel(t, keywordLibrary)

	assert.Equal(t, PreviewPlaceholder, m.RenderPreview())

	require.True(t, m.SetChecked("Стиль", "oil painting", true))
	require.True(t, m.SetChecked("Негатив", "blurry", true))
	require.True(t, m.SetChecked("Качество", "masterpiece", true))

	assert.Equal(t, "Positive:\noil painting, masterpiece\n\nNegative:\nblurry", m.RenderPreview())
	assert.Equal(t, "oil painting, masterpiece ||| blurry", m.ComposedPrompt())

	m.ClearAll()
	assert.Equal(t, PreviewPlaceholder, m.RenderPreview())
	assert.Zero(t, m.SelectedCount())
}

func TestKeywordModelOnlyNegative(t *testing.T) {
	m, _ := newKeywordModel(t, keywordLibrary)

	m.SetChecked("Негатив", "blurry", true)
	assert.Equal(t, "Negative:\nblurry", m.RenderPreview())
}

func TestKeywordModelUncheck(t *testing.T) {
	m, _ := newKeywordModel(t, keywordLibrary)

	m.SetChecked("Качество", "masterpiece", true)
	m.SetChecked("Качество", "best quality", true)
	m.SetChecked("Качество", "masterpiece", true)
	assert.Equal(t, 2, m.SelectedCount(), "checking twice keeps one entry")

	m.SetChecked("Качество", "masterpiece", false)
	assert.False(t, m.IsChecked("Качество", "masterpiece"))
	assert.Equal(t, "Positive:\nbest quality", m.RenderPreview())

	assert.False(t, m.Toggle("Качество", "best quality"))
	assert.True(t, m.Toggle("Качество", "best quality"))
}

func TestKeywordModelUnknownKeyword(t *testing.T) {
	m, _ := newKeywordModel(t, keywordLibrary)

	assert.False(t, m.SetChecked("Стиль", "pixel art", true))
	assert.False(t, m.SetChecked("Nope", "blurry", true))
	assert.Zero(t, m.SelectedCount())
	assert.Equal(t, PreviewPlaceholder, m.RenderPreview())
}

func TestKeywordModelSameWordInTwoCategories(t *testing.T) {
	m, _ := newKeywordModel(t, keywordLibrary)

	m.SetChecked("Стиль", "shared", true)
	assert.True(t, m.IsChecked("Стиль", "shared"))
	assert.False(t, m.IsChecked("Негатив", "shared"), "selection is keyed by category and word")

	m.SetChecked("Негатив", "shared", true)
	assert.Equal(t, "Positive:\nshared\n\nNegative:\nshared", m.RenderPreview())
}

func TestKeywordModelIsPositive(t *testing.T) {
	m, _ := newKeywordModel(t, keywordLibrary)

	assert.True(t, m.IsPositive("masterpiece"))
	assert.False(t, m.IsPositive("blurry"))
	assert.True(t, m.IsPositive("shared"), "first category containing the word decides")
	assert.True(t, m.IsPositive("not in catalog"))
}

func TestKeywordModelFilterAndSearch(t *testing.T) {
	m, _ := newKeywordModel(t, keywordLibrary)

	filtered := m.FilterEntries("Качество", "КАЧ")
	require.Len(t, filtered, 1)
	assert.Equal(t, "best quality", filtered[0].Word)
	assert.Len(t, m.FilterEntries("Качество", ""), 2)

	results := m.Search("mstrpc")
	require.NotEmpty(t, results)
	assert.Equal(t, "masterpiece", results[0].Word)

	assert.Len(t, m.Search(""), 6)
}

func TestKeywordModelReloadPrunesSelection(t *testing.T) {
	m, path := newKeywordModel(t, keywordLibrary)

	m.SetChecked("Качество", "masterpiece", true)
	m.SetChecked("Негатив", "blurry", true)

	updated := `{"keywords": {"1.Качество": [{"word": "masterpiece"}], "9.Негатив": []}}`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))
	require.NoError(t, m.Reload())

	assert.True(t, m.IsChecked("Качество", "masterpiece"))
	assert.False(t, m.IsChecked("Негатив", "blurry"))
	assert.Equal(t, "Positive:\nmasterpiece", m.RenderPreview())
}

func TestKeywordModelReloadKeepsCatalogOnError(t *testing.T) {
	m, path := newKeywordModel(t, keywordLibrary)
	m.SetChecked("Качество", "masterpiece", true)

	require.NoError(t, os.WriteFile(path, []byte(`{"keywords": `), 0644))
	assert.Error(t, m.Reload())

	assert.Len(t, m.ListCategories(), 3)
	assert.True(t, m.IsChecked("Качество", "masterpiece"))
}

func TestKeywordModelMissingFile(t *testing.T) {
	m := NewKeywordModel(zerolog.Nop())
	require.NoError(t, m.Load(filepath.Join(t.TempDir(), "missing.json")))

	assert.Empty(t, m.ListCategories())
	assert.Equal(t, PreviewPlaceholder, m.RenderPreview())
}
