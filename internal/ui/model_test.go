package ui

import (
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/service"
	"github.com/dpshade/prompt-genie/internal/watcher"
)

func newTestModel(t *testing.T, svc *service.Service, changes <-chan watcher.Event) Model {
	t.Helper()
	model, err := NewModel(svc, zerolog.Nop(), changes)
	require.NoError(t, err)

	m := *model
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelCreateTemplate(t *testing.T) {
	svc := newUIService(t)
	m := newTestModel(t, svc, nil)

	m = send(t, m, runes("n"))
	require.Equal(t, ViewTemplateForm, m.viewMode)

	m = send(t, m,
		runes("Фэнтези"), tea.KeyMsg{Type: tea.KeyTab},
		runes("Дракон"), tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyTab},
		runes("dragon ||| blurry"),
		tea.KeyMsg{Type: tea.KeyCtrlS},
	)

	assert.Equal(t, ViewTemplates, m.viewMode)
	assert.Equal(t, "success", m.statusKind)
	assert.Contains(t, m.statusMsg, "created")

	require.Equal(t, 1, svc.Templates().Len())
	created := svc.Templates().All()[0]
	assert.Equal(t, "Фэнтези", created.Category)
	assert.Equal(t, models.DefaultDescription, created.Summary)
	assert.Len(t, m.templateList.Items(), 1)
}

func TestModelFormRejectsInvalidDraft(t *testing.T) {
	svc := newUIService(t)
	m := newTestModel(t, svc, nil)

	m = send(t, m, runes("n"), tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Equal(t, ViewTemplateForm, m.viewMode, "the form stays open")
	assert.Equal(t, "warning", m.statusKind)
	assert.Zero(t, svc.Templates().Len())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewTemplates, m.viewMode)
}

func TestModelEditFromDetail(t *testing.T) {
	svc := newUIService(t)
	created, err := svc.Templates().Create(models.TemplateDraft{Title: "Station", Prompt: "orbital"})
	require.NoError(t, err)
	m := newTestModel(t, svc, nil)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewTemplateDetail, m.viewMode)
	require.NotNil(t, m.selectedTemplate)
	assert.Contains(t, m.View(), "Station")

	m = send(t, m, runes("e"))
	require.Equal(t, ViewTemplateForm, m.viewMode)
	assert.Equal(t, created.ID, m.form.EditingID())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab}, runes(" Alpha"), tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Equal(t, ViewTemplateDetail, m.viewMode, "saving returns to the detail view")
	got, err := svc.Templates().Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Station Alpha", got.Name)
	assert.Equal(t, "Station Alpha", m.selectedTemplate.Name)
}

func TestModelDeleteTemplate(t *testing.T) {
	svc := newUIService(t)
	_, err := svc.Templates().Create(models.TemplateDraft{Title: "Doomed", Prompt: "p"})
	require.NoError(t, err)
	m := newTestModel(t, svc, nil)

	m = send(t, m, runes("d"))
	require.Equal(t, ViewDeleteConfirm, m.viewMode)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, svc.Templates().Len(), "cancel is the default choice")
	assert.Equal(t, ViewTemplates, m.viewMode)

	m = send(t, m, runes("d"), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Zero(t, svc.Templates().Len())
	assert.Empty(t, m.templateList.Items())
	assert.Contains(t, m.statusMsg, "deleted")
}

func TestModelCategoryFilter(t *testing.T) {
	svc := newUIService(t)
	for _, d := range []models.TemplateDraft{
		{Category: "A", Title: "One", Prompt: "p"},
		{Category: "B", Title: "Two", Prompt: "p"},
		{Category: "B", Title: "Three", Prompt: "p"},
	} {
		_, err := svc.Templates().Create(d)
		require.NoError(t, err)
	}
	m := newTestModel(t, svc, nil)
	assert.Len(t, m.templateList.Items(), 3)

	m = send(t, m, runes("f"))
	assert.Equal(t, "A", m.categoryFilter)
	assert.Len(t, m.templateList.Items(), 1)

	m = send(t, m, runes("f"))
	assert.Equal(t, "B", m.categoryFilter)
	assert.Len(t, m.templateList.Items(), 2)

	m = send(t, m, runes("f"))
	assert.Empty(t, m.categoryFilter, "cycling past the last category shows all")
	assert.Len(t, m.templateList.Items(), 3)
}

func TestModelSwitchTabs(t *testing.T) {
	svc := newUIService(t)
	m := newTestModel(t, svc, nil)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewBuilder, m.viewMode)
	assert.Contains(t, m.View(), "Keyword Builder")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, 1, svc.Keywords().SelectedCount())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ViewTemplates, m.viewMode)
}

func TestModelHelpModal(t *testing.T) {
	svc := newUIService(t)
	m := newTestModel(t, svc, nil)

	m = send(t, m, runes("?"))
	assert.True(t, m.showHelpModal)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelpModal)
}

func TestModelReloadsKeywordsOnChange(t *testing.T) {
	svc := newUIService(t)
	changes := make(chan watcher.Event, 1)
	m := newTestModel(t, svc, changes)
	require.NotNil(t, m.Init())

	svc.Keywords().SetChecked("Качество", "masterpiece", true)
	updated := `{"keywords": {"1.Качество": [{"word": "masterpiece"}, {"word": "sharp focus"}]}}`
	require.NoError(t, os.WriteFile(svc.Keywords().Path(), []byte(updated), 0644))

	next, cmd := m.Update(keywordsChangedMsg{event: watcher.Event{Path: svc.Keywords().Path(), Op: fsnotify.Write, Time: time.Now()}})
	m = next.(Model)

	assert.NotNil(t, cmd, "waits for the next change")
	assert.Equal(t, "Keyword library reloaded", m.statusMsg)
	assert.Equal(t, []string{"Качество"}, svc.Keywords().ListCategories())
	assert.True(t, svc.Keywords().IsChecked("Качество", "masterpiece"))
}

func TestModelReloadFailureKeepsCatalog(t *testing.T) {
	svc := newUIService(t)
	m := newTestModel(t, svc, nil)

	require.NoError(t, os.WriteFile(svc.Keywords().Path(), []byte(`{"keywords": [`), 0644))
	m = send(t, m, keywordsChangedMsg{})

	assert.NotEqual(t, "success", m.statusKind)
	assert.NotEmpty(t, m.statusMsg)
	assert.Len(t, svc.Keywords().ListCategories(), 3)
}

func TestWaitForChange(t *testing.T) {
	assert.Nil(t, waitForChange(nil))

	changes := make(chan watcher.Event, 1)
	changes <- watcher.Event{Path: "keyword_library.json"}
	msg := waitForChange(changes)()
	assert.Equal(t, keywordsChangedMsg{event: watcher.Event{Path: "keyword_library.json"}}, msg)

	close(changes)
	assert.Nil(t, waitForChange(changes)())
}

func TestModelStatusClears(t *testing.T) {
	svc := newUIService(t)
	m := newTestModel(t, svc, nil)

	m = send(t, m, statusMsg{text: "done"})
	require.Equal(t, "done", m.statusMsg)

	for i := 0; i < 3; i++ {
		m = send(t, m, tickMsg(time.Now()))
	}
	assert.Empty(t, m.statusMsg)
}
