package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/storage"
)

func newTemplateStore(t *testing.T) (*TemplateStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), storage.DefaultThemesFile)

	s := NewTemplateStore(zerolog.Nop())
	require.NoError(t, s.Load(path))

	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	n := 0
	s.newID = func(models.Template, int) string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	return s, path
}

func collect(s *TemplateStore, filterText, filterCategory string) []string {
	var titles []string
	for tmpl := range s.List(filterText, filterCategory) {
		titles = append(titles, tmpl.Name)
	}
	return titles
}

func TestTemplateStoreCreate(t *testing.T) {
	s, path := newTemplateStore(t)

	created, err := s.Create(models.TemplateDraft{Title: "Дракон", Prompt: "dragon ||| blurry"})
	require.NoError(t, err)

	assert.Equal(t, "id-001", created.ID)
	assert.Equal(t, models.DefaultCategory, created.Category)
	assert.Equal(t, models.DefaultDescription, created.Summary)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.LastModified)

	reloaded := NewTemplateStore(zerolog.Nop())
	require.NoError(t, reloaded.Load(path))
	require.Equal(t, 1, reloaded.Len())
	assert.Equal(t, "dragon ||| blurry", reloaded.All()[0].Prompt, "delimiter is stored verbatim")
}

func TestTemplateStoreCreateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		draft models.TemplateDraft
	}{
		{"empty title", models.TemplateDraft{Prompt: "p"}},
		{"blank prompt", models.TemplateDraft{Title: "t", Prompt: "  "}},
		{"title too long", models.TemplateDraft{Title: strings.Repeat("я", 101), Prompt: "p"}},
		{"prompt too long", models.TemplateDraft{Title: "t", Prompt: strings.Repeat("x", 10001)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, path := newTemplateStore(t)

			_, err := s.Create(tt.draft)
			assert.True(t, apperrors.IsValidation(err))
			assert.Zero(t, s.Len())

			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr), "nothing is written")
		})
	}
}

func TestTemplateStoreLimitsAreInclusive(t *testing.T) {
	s, _ := newTemplateStore(t)

	_, err := s.Create(models.TemplateDraft{Title: strings.Repeat("я", 100), Prompt: strings.Repeat("x", 10000)})
	assert.NoError(t, err)
}

func TestTemplateStoreUpdate(t *testing.T) {
	s, _ := newTemplateStore(t)
	created, err := s.Create(models.TemplateDraft{Category: "A", Title: "One", Prompt: "p1"})
	require.NoError(t, err)

	updated, err := s.Update(created.ID, models.TemplateDraft{Category: "B", Title: "Uno", Description: "desc", Prompt: "p2"})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.LastModified.After(created.LastModified))
	assert.Equal(t, "Uno", updated.Name)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "p2", got.Prompt)

	_, err = s.Update(created.ID, models.TemplateDraft{Title: "", Prompt: "p"})
	assert.True(t, apperrors.IsValidation(err))
	got, _ = s.Get(created.ID)
	assert.Equal(t, "Uno", got.Name, "rejected update leaves the template unchanged")

	_, err = s.Update("missing", models.TemplateDraft{Title: "x", Prompt: "y"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTemplateStoreDelete(t *testing.T) {
	s, path := newTemplateStore(t)
	a, _ := s.Create(models.TemplateDraft{Title: "A", Prompt: "a"})
	_, _ = s.Create(models.TemplateDraft{Title: "B", Prompt: "b"})

	require.NoError(t, s.Delete(a.ID))
	assert.Equal(t, []string{"B"}, collect(s, "", ""))
	assert.True(t, apperrors.IsNotFound(s.Delete(a.ID)))

	reloaded := NewTemplateStore(zerolog.Nop())
	require.NoError(t, reloaded.Load(path))
	assert.Equal(t, 1, reloaded.Len())

	backups, err := storage.ListBackups(path)
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestTemplateStoreList(t *testing.T) {
	s, _ := newTemplateStore(t)
	for _, d := range []models.TemplateDraft{
		{Category: "Фэнтези", Title: "Дракон", Description: "Огонь", Prompt: "p"},
		{Category: "Sci-Fi", Title: "Station", Description: "Orbital dragon port", Prompt: "p"},
		{Category: "Фэнтези", Title: "Замок", Prompt: "p"},
	} {
		_, err := s.Create(d)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Дракон", "Station", "Замок"}, collect(s, "", ""))
	assert.Equal(t, []string{"Дракон", "Замок"}, collect(s, "", "Фэнтези"))
	assert.Equal(t, []string{"Station"}, collect(s, "DRAGON", ""))
	assert.Equal(t, []string{"Дракон"}, collect(s, "дра", "Фэнтези"))
	assert.Empty(t, collect(s, "", "Фэнт"))

	assert.Equal(t, []string{"Sci-Fi", "Фэнтези"}, s.Categories())
}

func TestTemplateStoreListYieldsCopies(t *testing.T) {
	s, _ := newTemplateStore(t)
	created, _ := s.Create(models.TemplateDraft{Title: "A", Prompt: "a"})

	for tmpl := range s.List("", "") {
		tmpl.Name = "changed"
	}
	got, _ := s.Get(created.ID)
	assert.Equal(t, "A", got.Name)
}

func TestTemplateStoreResolve(t *testing.T) {
	s, _ := newTemplateStore(t)
	s.newID = func(models.Template, int) string { return "abc-" + fmt.Sprint(s.Len()) }
	_, _ = s.Create(models.TemplateDraft{Title: "First", Prompt: "p"})
	_, _ = s.Create(models.TemplateDraft{Title: "Second", Prompt: "p"})

	got, err := s.Resolve("abc-1")
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Name)

	got, err = s.Resolve("First")
	require.NoError(t, err)
	assert.Equal(t, "abc-0", got.ID)

	_, err = s.Resolve("abc")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), "ambiguous prefix")

	_, err = s.Resolve("")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = s.Resolve("Third")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTemplateStoreSaveFailureRollsBack(t *testing.T) {
	s, path := newTemplateStore(t)
	// a directory where the file should be makes every write fail
	require.NoError(t, os.Mkdir(path, 0755))

	_, err := s.Create(models.TemplateDraft{Title: "A", Prompt: "a"})
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistence(err))
	assert.Zero(t, s.Len())
}

func TestTemplateStoreLoadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.DefaultThemesFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewTemplateStore(zerolog.Nop())
	err := s.Load(path)
	assert.True(t, apperrors.IsParse(err))
	assert.True(t, apperrors.IsParse(s.LoadErr()))
	assert.Zero(t, s.Len())
}

func TestTemplateStoreRefusesToOverwriteUnreadableLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.DefaultThemesFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewTemplateStore(zerolog.Nop())
	require.Error(t, s.Load(path))

	_, err := s.Create(models.TemplateDraft{Title: "New", Prompt: "p"})
	assert.True(t, apperrors.IsPersistence(err))
	assert.Zero(t, s.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))

	backups, err := storage.ListBackups(path)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestTemplateStoreIDsAreStableAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.DefaultThemesFile)
	s := NewTemplateStore(zerolog.Nop())
	require.NoError(t, s.Load(path))

	var created []string
	for _, title := range []string{"Dup", "Dup", "Other"} {
		tmpl, err := s.Create(models.TemplateDraft{Title: title, Prompt: "p"})
		require.NoError(t, err)
		created = append(created, tmpl.ID)
	}
	assert.Len(t, map[string]bool{created[0]: true, created[1]: true, created[2]: true}, 3)

	ids := func() []string {
		reloaded := NewTemplateStore(zerolog.Nop())
		require.NoError(t, reloaded.Load(path))
		var out []string
		for _, tmpl := range reloaded.All() {
			out = append(out, tmpl.ID)
		}
		return out
	}
	assert.Equal(t, created, ids())
	assert.Equal(t, created, ids())
}

func TestTemplateStoreKeepsEntriesItCannotEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.DefaultThemesFile)
	long := strings.Repeat("x", 2500)
	require.NoError(t, os.WriteFile(path, []byte(`{"themes": [
  {"title_ru": "Kept", "description_ru": "`+long+`", "prompt_combined_en": "p"},
  {"description_ru": "no title", "prompt_combined_en": "orphan"},
  {"title_ru": "Other", "prompt_combined_en": "o"}
]}`), 0644))

	s := NewTemplateStore(zerolog.Nop())
	require.NoError(t, s.Load(path))
	assert.Equal(t, []string{"Kept", "Other"}, collect(s, "", ""))

	_, err := s.Create(models.TemplateDraft{Title: "New", Prompt: "n"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), long)
	assert.Contains(t, string(data), `"prompt_combined_en": "orphan"`)

	reloaded := NewTemplateStore(zerolog.Nop())
	require.NoError(t, reloaded.Load(path))
	assert.Equal(t, []string{"Kept", "Other", "New"}, collect(reloaded, "", ""))
}

func TestTemplateStoreSaveWithoutLoad(t *testing.T) {
	s := NewTemplateStore(zerolog.Nop())
	err := s.Save()
	assert.True(t, apperrors.IsPersistence(err))

	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
}

func TestTemplateStoreImport(t *testing.T) {
	s, _ := newTemplateStore(t)
	_, _ = s.Create(models.TemplateDraft{Category: "A", Title: "Keep", Prompt: "old"})

	incoming := []models.Template{
		{Category: "A", Name: "Keep", Prompt: "new"},
		{Category: "B", Name: "Fresh", Prompt: "fresh"},
		{Category: "B", Name: "", Prompt: "invalid"},
	}

	result, err := s.Import(incoming, false)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 1, Skipped: 2}, result)

	result, err = s.Import(incoming, true)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 2, Skipped: 1}, result)

	keep, err := s.FindByTitle("Keep")
	require.NoError(t, err)
	assert.Equal(t, "new", keep.Prompt)
	assert.Equal(t, 2, s.Len())
}
