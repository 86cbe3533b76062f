package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateJSON(t *testing.T) {
	in := `{"prompt_combined_en":"knight <sword> ||| lowres","title_ru":"Рыцарь","zeta":1,"alpha":{"x":true},"created_at":"2023-04-05T06:07:08"}`

	var tmpl Template
	require.NoError(t, json.Unmarshal([]byte(in), &tmpl))

	assert.Equal(t, "Рыцарь", tmpl.Name)
	assert.Equal(t, "knight <sword>", tmpl.PositivePrompt())
	assert.Equal(t, "lowres", tmpl.NegativePrompt())
	assert.Equal(t, time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC), tmpl.CreatedAt)
	assert.Len(t, tmpl.Extra, 2)

	tmpl.Normalize()
	out, err := json.Marshal(tmpl)
	require.NoError(t, err)

	assert.Equal(t,
		`{"category":"Uncategorized","title_ru":"Рыцарь","description_ru":"No description",`+
			`"prompt_combined_en":"knight <sword> ||| lowres","created_at":"2023-04-05T06:07:08Z",`+
			`"alpha":{"x":true},"zeta":1}`,
		string(out))
}

func TestTemplateKeepsUnparseableTimestamp(t *testing.T) {
	var tmpl Template
	require.NoError(t, json.Unmarshal([]byte(`{"title_ru":"t","last_modified":"yesterday"}`), &tmpl))

	assert.True(t, tmpl.LastModified.IsZero())
	out, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"last_modified":"yesterday"`)
}

func TestTemplateWithoutDelimiter(t *testing.T) {
	tmpl := Template{Prompt: "plain prompt"}
	assert.Equal(t, "plain prompt", tmpl.PositivePrompt())
	assert.Empty(t, tmpl.NegativePrompt())
}

func TestTemplateMatches(t *testing.T) {
	tmpl := Template{Category: "Фэнтези", Name: "Дракон", Summary: "Fire breathing"}

	assert.True(t, tmpl.Matches("", ""))
	assert.True(t, tmpl.Matches("дРаК", ""))
	assert.True(t, tmpl.Matches("breath", "Фэнтези"))
	assert.False(t, tmpl.Matches("", "Фэнт"), "category must match exactly")
	assert.False(t, tmpl.Matches("castle", ""))
}

func TestTemplateApplyAndClone(t *testing.T) {
	var tmpl Template
	tmpl.Apply(TemplateDraft{Title: "  Title ", Prompt: " p "})

	assert.Equal(t, "Title", tmpl.Name)
	assert.Equal(t, "p", tmpl.Prompt)
	assert.Equal(t, DefaultCategory, tmpl.Category)
	assert.Equal(t, DefaultDescription, tmpl.Summary)
	assert.Equal(t, TemplateDraft{Category: DefaultCategory, Title: "Title", Description: DefaultDescription, Prompt: "p"}, tmpl.Draft())

	tmpl.Extra = map[string]json.RawMessage{"k": json.RawMessage(`1`)}
	clone := tmpl.Clone()
	clone.Extra["k"][0] = '2'
	assert.Equal(t, "1", string(tmpl.Extra["k"]))
}

func TestTemplateListItem(t *testing.T) {
	tmpl := Template{
		Category:     "Sci-Fi",
		Name:         "Line\nbreak",
		Summary:      "Short",
		LastModified: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
	}

	assert.NotContains(t, tmpl.Title(), "\n")
	assert.Equal(t, "Sci-Fi • Short • Last edited: 2024-01-02 03:04", tmpl.Description())
}
