package ui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/prompt-genie/internal/config"
	apperrors "github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/service"
)

const testKeywordLibrary = `{
  "keywords": {
    "1.Качество": [
      {"word": "masterpiece", "translate": "шедевр"},
      {"word": "best quality", "translate": "лучшее качество"}
    ],
    "2.Стиль": [
      {"word": "oil painting", "translate": "масляная живопись"}
    ],
    "9.Негатив": [
      {"word": "blurry", "translate": "размыто"}
    ]
  }
}`

func newUIService(t *testing.T) *service.Service {
	t.Helper()
	t.Setenv("GLAMOUR_STYLE", "dark")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keyword_library.json"), []byte(testKeywordLibrary), 0644))

	cfg := config.Default()
	cfg.DataDir = dir
	svc := service.NewService(cfg, zerolog.Nop())
	require.NoError(t, svc.Load())
	return svc
}

func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestKeywordBuilderToggle(t *testing.T) {
	svc := newUIService(t)
	b := NewKeywordBuilder(svc)

	cat, ok := b.CurrentCategory()
	require.True(t, ok)
	assert.Equal(t, "Качество", cat.Name)

	press(b.Update, tea.KeyRight)
	press(b.Update, tea.KeySpace)
	assert.True(t, svc.Keywords().IsChecked("Качество", "masterpiece"))

	press(b.Update, tea.KeyDown)
	kw, ok := b.CurrentKeyword()
	require.True(t, ok)
	assert.Equal(t, "best quality", kw.Word)

	press(b.Update, tea.KeyLeft)
	press(b.Update, tea.KeyUp)
	cat, _ = b.CurrentCategory()
	assert.Equal(t, "Негатив", cat.Name, "moving up from the first category wraps")

	press(b.Update, tea.KeyEnter)
	press(b.Update, tea.KeyEnter)
	assert.True(t, svc.Keywords().IsChecked("Негатив", "blurry"))

	assert.Equal(t, "Positive:\nmasterpiece\n\nNegative:\nblurry", svc.Keywords().RenderPreview())
	assert.Contains(t, b.View(), "2 keyword(s) selected")
}

func TestKeywordBuilderFilter(t *testing.T) {
	svc := newUIService(t)
	b := NewKeywordBuilder(svc)

	typeText(b.Update, "/")
	require.True(t, b.IsFiltering())
	typeText(b.Update, "лучшее")
	assert.Len(t, b.VisibleKeywords(), 1)

	press(b.Update, tea.KeyEnter)
	assert.False(t, b.IsFiltering())
	assert.Len(t, b.VisibleKeywords(), 1, "enter keeps the filter")

	press(b.Update, tea.KeySpace)
	assert.True(t, svc.Keywords().IsChecked("Качество", "best quality"))

	typeText(b.Update, "/")
	press(b.Update, tea.KeyEsc)
	assert.Len(t, b.VisibleKeywords(), 2, "esc clears the filter")
}

func TestKeywordBuilderClearAndCopy(t *testing.T) {
	svc := newUIService(t)
	b := NewKeywordBuilder(svc)

	msg := runCmd(b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")}))
	status, ok := msg.(statusMsg)
	require.True(t, ok)
	assert.True(t, apperrors.HasCode(status.err, apperrors.ErrCodeInvalidInput), "empty selection is not copied")

	assert.Nil(t, b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}), "nothing to clear")

	svc.Keywords().SetChecked("Стиль", "oil painting", true)
	msg = runCmd(b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}))
	assert.Equal(t, statusMsg{text: "Selection cleared"}, msg)
	assert.Zero(t, svc.Keywords().SelectedCount())
	assert.Contains(t, b.View(), service.PreviewPlaceholder)
}

func TestKeywordBuilderReloadedClampsCursor(t *testing.T) {
	svc := newUIService(t)
	b := NewKeywordBuilder(svc)

	press(b.Update, tea.KeyUp)
	cat, _ := b.CurrentCategory()
	require.Equal(t, "Негатив", cat.Name)

	updated := `{"keywords": {"1.Качество": [{"word": "masterpiece"}]}}`
	require.NoError(t, os.WriteFile(svc.Keywords().Path(), []byte(updated), 0644))
	require.NoError(t, svc.ReloadKeywords())
	b.Reloaded()

	cat, ok := b.CurrentCategory()
	require.True(t, ok)
	assert.Equal(t, "Качество", cat.Name)
}

func TestKeywordBuilderEmptyCatalog(t *testing.T) {
	t.Setenv("GLAMOUR_STYLE", "dark")
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	svc := service.NewService(cfg, zerolog.Nop())
	require.NoError(t, svc.Load())

	b := NewKeywordBuilder(svc)
	press(b.Update, tea.KeyDown)
	press(b.Update, tea.KeySpace)

	_, ok := b.CurrentCategory()
	assert.False(t, ok)
	assert.Contains(t, b.View(), "No keyword categories")
}
