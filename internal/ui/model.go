package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"

	apperrors "github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/renderer"
	"github.com/dpshade/prompt-genie/internal/service"
	"github.com/dpshade/prompt-genie/internal/watcher"
)

// createGlamourRenderer creates a glamour renderer with improved contrast handling
func createGlamourRenderer(wordWrap int) (*glamour.TermRenderer, error) {
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		return glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrap),
		)
	}

	profile := termenv.ColorProfile()

	var styleOption glamour.TermRendererOption
	switch {
	case profile != termenv.TrueColor && profile != termenv.ANSI256:
		// Limited color terminals pick their own style
		styleOption = glamour.WithAutoStyle()
	case lipgloss.HasDarkBackground():
		styleOption = glamour.WithStandardStyle("dark")
	default:
		styleOption = glamour.WithStandardStyle("light")
	}

	return glamour.NewTermRenderer(
		styleOption,
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(wordWrap),
	)
}

// ViewMode represents the current view in the TUI
type ViewMode int

const (
	ViewTemplates ViewMode = iota
	ViewTemplateDetail
	ViewTemplateForm
	ViewDeleteConfirm
	ViewBuilder
)

var tabLabels = []string{"Templates", "Keyword Builder"}

// KeyMap defines all key bindings
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Back       key.Binding
	Quit       key.Binding
	Help       key.Binding
	ExpandHelp key.Binding
	Search     key.Binding
	Category   key.Binding
	SwitchTab  key.Binding
	Copy       key.Binding
	CopyJSON   key.Binding
	New        key.Binding
	Edit       key.Binding
	Delete     key.Binding
	Save       key.Binding
	Toggle     key.Binding
	ClearAll   key.Binding
}

// ShortHelp returns keybindings to show in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns keybindings to show in the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Search, k.Category, k.SwitchTab},
		{k.New, k.Edit, k.Delete, k.Save},
		{k.Copy, k.CopyJSON, k.Toggle, k.ClearAll},
		{k.ExpandHelp, k.Help, k.Quit},
	}
}

var keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	ExpandHelp: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("Ctrl+g", "expand help"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Category: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "next category"),
	),
	SwitchTab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch tab"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	CopyJSON: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy as JSON"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new template"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("Ctrl+s", "save form"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "toggle keyword"),
	),
	ClearAll: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear selection"),
	),
}

// statusMsg carries the outcome of an action for the status line
type statusMsg struct {
	text string
	err  error
}

func statusCmd(text string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, err: err}
	}
}

// tickMsg is sent to clear the status message
type tickMsg time.Time

// clearStatusCmd returns a command that clears the status message after a delay
func clearStatusCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// keywordsChangedMsg reports that the keyword library changed on disk
type keywordsChangedMsg struct {
	event watcher.Event
}

// waitForChange blocks until the watcher reports a change. A closed channel
// ends the loop.
func waitForChange(changes <-chan watcher.Event) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-changes
		if !ok {
			return nil
		}
		return keywordsChangedMsg{event: event}
	}
}

// Model represents the TUI application state
type Model struct {
	service    *service.Service
	logger     zerolog.Logger
	errHandler *apperrors.TUIErrorHandler
	viewMode   ViewMode
	prevMode   ViewMode

	// UI components
	templateList list.Model
	viewport     viewport.Model
	help         help.Model
	keys         KeyMap

	// Data
	categoryFilter   string
	selectedTemplate *models.Template

	form          *TemplateForm
	deleteConfirm *SelectForm
	builder       *KeywordBuilder

	glamourRenderer *glamour.TermRenderer

	// Window dimensions
	width  int
	height int

	// Status messages
	statusMsg     string
	statusKind    string
	statusTimeout int

	showHelpModal    bool
	showExpandedHelp bool

	changes <-chan watcher.Event
}

// NewModel creates a new TUI model over a loaded service. changes may be nil
// when the keyword library is not watched.
func NewModel(svc *service.Service, logger zerolog.Logger, changes <-chan watcher.Event) (*Model, error) {
	initializeColors()

	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	keyMap := list.DefaultKeyMap()
	keyMap.Filter = keys.Search
	l.KeyMap = keyMap

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	r, err := createGlamourRenderer(60)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	m := &Model{
		service:         svc,
		logger:          logger.With().Str("component", "tui").Logger(),
		errHandler:      apperrors.NewTUIErrorHandler(false, logger),
		viewMode:        ViewTemplates,
		templateList:    l,
		viewport:        vp,
		help:            help.New(),
		keys:            keys,
		form:            NewTemplateForm(),
		builder:         NewKeywordBuilder(svc),
		glamourRenderer: r,
		changes:         changes,
	}
	m.refreshTemplateList()
	return m, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.statusTimeout > 0 {
			m.statusTimeout--
			if m.statusTimeout == 0 {
				m.statusMsg = ""
			} else {
				return m, clearStatusCmd()
			}
		}
		return m, nil

	case statusMsg:
		return m, m.setStatus(msg.text, msg.err)

	case keywordsChangedMsg:
		m.logger.Debug().Str("path", msg.event.Path).Str("op", msg.event.Op.String()).Msg("keyword library changed")
		var cmd tea.Cmd
		if err := m.service.ReloadKeywords(); err != nil {
			cmd = m.setStatus("", err)
		} else {
			m.builder.Reloaded()
			cmd = m.setStatus("Keyword library reloaded", nil)
		}
		return m, tea.Batch(cmd, waitForChange(m.changes))

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.showHelpModal {
			if key.Matches(msg, m.keys.Help, m.keys.Back) {
				m.showHelpModal = false
			}
			return m, nil
		}
		if key.Matches(msg, m.keys.ExpandHelp) {
			m.showExpandedHelp = !m.showExpandedHelp
			return m, nil
		}

		switch m.viewMode {
		case ViewTemplates:
			return m.updateTemplates(msg)
		case ViewTemplateDetail:
			return m.updateDetail(msg)
		case ViewTemplateForm:
			return m.updateForm(msg)
		case ViewDeleteConfirm:
			return m.updateDeleteConfirm(msg)
		case ViewBuilder:
			return m.updateBuilder(msg)
		}
	}

	// Non-key messages such as cursor blinks go to the focused component
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewTemplates:
		m.templateList, cmd = m.templateList.Update(msg)
	case ViewTemplateDetail:
		m.viewport, cmd = m.viewport.Update(msg)
	case ViewTemplateForm:
		cmd = m.form.Update(msg)
	case ViewBuilder:
		cmd = m.builder.Update(msg)
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	// header, tabs, status and help rows
	m.templateList.SetSize(width-4, height-8)

	m.viewport.Width = width - 8
	m.viewport.Height = height - 12
	if r, err := createGlamourRenderer(m.viewport.Width - 2); err == nil {
		m.glamourRenderer = r
	}
	if m.selectedTemplate != nil {
		m.renderDetail()
	}

	m.form.Resize(width, height)
	m.builder.Resize(width-4, height-8)
}

func (m Model) updateTemplates(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the list filter is open every key belongs to it
	if m.templateList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.templateList, cmd = m.templateList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = true
		return m, nil
	case key.Matches(msg, m.keys.SwitchTab):
		m.viewMode = ViewBuilder
		return m, nil
	case key.Matches(msg, m.keys.Category):
		m.cycleCategory()
		return m, nil
	case key.Matches(msg, m.keys.New):
		m.openForm(nil)
		return m, nil
	}

	selected, ok := m.currentTemplate()
	if ok {
		switch {
		case key.Matches(msg, m.keys.Enter):
			m.selectedTemplate = &selected
			m.renderDetail()
			m.viewMode = ViewTemplateDetail
			return m, nil
		case key.Matches(msg, m.keys.Edit):
			m.openForm(&selected)
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			m.openDeleteConfirm(selected)
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			text, err := m.service.CopyTemplate(selected.ID)
			return m, m.setStatus(text, err)
		case key.Matches(msg, m.keys.CopyJSON):
			text, err := m.service.CopyTemplateMessages(selected.ID)
			if err == nil {
				text = "Copied as JSON messages!"
			}
			return m, m.setStatus(text, err)
		}
	}

	var cmd tea.Cmd
	m.templateList, cmd = m.templateList.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.selectedTemplate == nil {
		m.viewMode = ViewTemplates
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back), msg.String() == "left":
		m.viewMode = ViewTemplates
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Copy):
		text, err := m.service.CopyTemplate(m.selectedTemplate.ID)
		return m, m.setStatus(text, err)
	case key.Matches(msg, m.keys.CopyJSON):
		text, err := m.service.CopyTemplateMessages(m.selectedTemplate.ID)
		if err == nil {
			text = "Copied as JSON messages!"
		}
		return m, m.setStatus(text, err)
	case key.Matches(msg, m.keys.Edit):
		m.openForm(m.selectedTemplate)
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		m.openDeleteConfirm(*m.selectedTemplate)
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.form.Reset()
		m.viewMode = m.prevMode
		return m, nil
	}

	cmd := m.form.Update(msg)
	if !m.form.IsSubmitted() {
		return m, cmd
	}
	m.form.ClearSubmitted()

	if err := m.form.Validate(); err != nil {
		return m, m.setStatus("", err)
	}

	draft := m.form.ToDraft()
	var (
		saved  models.Template
		err    error
		action string
	)
	if id := m.form.EditingID(); id != "" {
		saved, err = m.service.Templates().Update(id, draft)
		action = "updated"
	} else {
		saved, err = m.service.Templates().Create(draft)
		action = "created"
	}
	if err != nil {
		return m, m.setStatus("", err)
	}

	m.form.Reset()
	m.refreshTemplateList()
	m.selectTemplate(saved.ID)

	if m.prevMode == ViewTemplateDetail {
		m.selectedTemplate = &saved
		m.renderDetail()
	}
	m.viewMode = m.prevMode
	return m, m.setStatus(fmt.Sprintf("Template '%s' %s", saved.Name, action), nil)
}

func (m Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deleteConfirm == nil || m.selectedTemplate == nil {
		m.viewMode = ViewTemplates
		return m, nil
	}
	if key.Matches(msg, m.keys.Back) {
		m.deleteConfirm = nil
		m.viewMode = m.prevMode
		return m, nil
	}

	m.deleteConfirm.Update(msg)
	if !m.deleteConfirm.IsSubmitted() {
		return m, nil
	}

	choice := m.deleteConfirm.GetSelected()
	m.deleteConfirm = nil
	if choice == nil || choice.Value != "delete" {
		m.viewMode = m.prevMode
		return m, nil
	}

	target := *m.selectedTemplate
	if err := m.service.Templates().Delete(target.ID); err != nil {
		m.viewMode = m.prevMode
		return m, m.setStatus("", err)
	}

	m.selectedTemplate = nil
	m.refreshTemplateList()
	m.viewMode = ViewTemplates
	return m, m.setStatus(fmt.Sprintf("Template '%s' deleted", target.Name), nil)
}

func (m Model) updateBuilder(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.builder.IsFiltering() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelpModal = true
			return m, nil
		case key.Matches(msg, m.keys.SwitchTab):
			m.viewMode = ViewTemplates
			return m, nil
		}
	}
	return m, m.builder.Update(msg)
}

// setStatus shows text, or the formatted error when err is set, for a few seconds
func (m *Model) setStatus(text string, err error) tea.Cmd {
	if err != nil {
		handled := m.errHandler.HandleError(err)
		icon, _ := m.errHandler.GetErrorStyle(handled)
		m.statusMsg = icon + " " + m.errHandler.FormatError(handled)
		m.statusKind = "error"
		if appErr := apperrors.GetAppError(handled); appErr.Severity == apperrors.SeverityWarning {
			m.statusKind = "warning"
		}
		m.statusTimeout = 5
	} else {
		m.statusMsg = text
		m.statusKind = "success"
		m.statusTimeout = 3
	}
	return clearStatusCmd()
}

func (m *Model) openForm(t *models.Template) {
	m.prevMode = m.viewMode
	if m.prevMode != ViewTemplateDetail {
		m.prevMode = ViewTemplates
	}
	m.form.Reset()
	m.form.SetCategorySuggestions(m.service.Templates().Categories())
	if t != nil {
		m.form.LoadTemplate(*t)
	}
	m.form.Resize(m.width, m.height)
	m.viewMode = ViewTemplateForm
}

func (m *Model) openDeleteConfirm(t models.Template) {
	m.prevMode = m.viewMode
	m.selectedTemplate = &t
	m.deleteConfirm = NewSelectForm([]SelectOption{
		{Label: "Cancel", Value: "cancel"},
		{Label: "Delete", Description: "removes the template from the library", Value: "delete"},
	})
	m.viewMode = ViewDeleteConfirm
}

// cycleCategory steps the category filter through "all" and each category
func (m *Model) cycleCategory() {
	categories := m.service.Templates().Categories()
	next := ""
	if m.categoryFilter == "" {
		if len(categories) > 0 {
			next = categories[0]
		}
	} else {
		for i, c := range categories {
			if c == m.categoryFilter && i+1 < len(categories) {
				next = categories[i+1]
				break
			}
		}
	}
	m.categoryFilter = next
	m.templateList.ResetFilter()
	m.refreshTemplateList()
}

// refreshTemplateList reloads the list items from the store under the category filter
func (m *Model) refreshTemplateList() {
	var items []list.Item
	for t := range m.service.Templates().List("", m.categoryFilter) {
		items = append(items, t)
	}
	m.templateList.SetItems(items)
}

func (m *Model) selectTemplate(id string) {
	for i, item := range m.templateList.Items() {
		if t, ok := item.(models.Template); ok && t.ID == id {
			m.templateList.Select(i)
			return
		}
	}
}

func (m Model) currentTemplate() (models.Template, bool) {
	t, ok := m.templateList.SelectedItem().(models.Template)
	return t, ok
}

// renderDetail renders the selected template into the viewport
func (m *Model) renderDetail() {
	if m.selectedTemplate == nil {
		return
	}
	markdown := renderer.NewRenderer(*m.selectedTemplate).RenderMarkdown()
	formatted, err := m.glamourRenderer.Render(markdown)
	if err != nil {
		formatted = markdown
	}
	m.viewport.SetContent(formatted)
	m.viewport.GotoTop()
}

// View renders the current view
func (m Model) View() string {
	if m.showHelpModal {
		return m.renderHelpModal()
	}

	var mainView string
	switch m.viewMode {
	case ViewTemplates:
		mainView = m.renderTemplatesView()
	case ViewTemplateDetail:
		mainView = m.renderDetailView()
	case ViewTemplateForm:
		mainView = m.renderFormView()
	case ViewDeleteConfirm:
		mainView = m.renderDeleteConfirmView()
	case ViewBuilder:
		mainView = m.renderBuilderView()
	default:
		mainView = "Unknown view mode"
	}

	if m.statusMsg != "" {
		statusBar := CreateStatus(m.statusMsg, m.statusKind)
		return AddMainPadding(lipgloss.JoinVertical(lipgloss.Left, mainView, statusBar))
	}
	return AddMainPadding(mainView)
}

func (m Model) activeTab() int {
	if m.viewMode == ViewBuilder {
		return 1
	}
	return 0
}

func (m Model) renderTemplatesView() string {
	tabs := CreateTabs(tabLabels, m.activeTab())

	category := "all categories"
	if m.categoryFilter != "" {
		category = m.categoryFilter
	}
	metadata := CreateMetadata(fmt.Sprintf("%d template(s) • %s", len(m.templateList.Items()), category))

	var body string
	if len(m.templateList.Items()) == 0 {
		body = StyleTextMuted.Render("No templates yet. Press n to create one.")
	} else {
		body = m.templateList.View()
	}

	essential := []string{"enter view • c copy • n new • e edit • d delete"}
	additional := []string{"/ filter • f next category • y copy JSON", "tab keyword builder • ? help • q quit"}
	help := CreateContextualHelp(essential, additional, m.showExpandedHelp, m.width)

	return lipgloss.JoinVertical(lipgloss.Left, tabs, metadata, body, help)
}

func (m Model) renderDetailView() string {
	if m.selectedTemplate == nil {
		return "No template selected"
	}
	t := m.selectedTemplate

	headerLine := CreateSubPageHeader(t.Title())
	metadata := fmt.Sprintf("Category: %s", t.Category)
	if !t.LastModified.IsZero() {
		metadata += " • Last edited: " + t.LastModified.Format("2006-01-02 15:04")
	}

	top, bottom := CreateScrollIndicators(!m.viewport.AtTop(), !m.viewport.AtBottom())
	content := StyleContentContainer.Render(lipgloss.JoinVertical(lipgloss.Left, top, m.viewport.View(), bottom))

	essential := []string{"c copy • e edit • d delete"}
	additional := []string{"y copy JSON • ↑/↓ scroll • Esc back"}
	help := CreateContextualHelp(essential, additional, m.showExpandedHelp, m.width)

	return lipgloss.JoinVertical(lipgloss.Left, headerLine, CreateMetadata(metadata), content, help)
}

func (m Model) renderFormView() string {
	title := "New Template"
	if m.form.EditingID() != "" {
		title = "Edit Template"
	}
	help := CreateGuaranteedHelp("tab next field • Ctrl+s save • Esc cancel", m.width)
	return lipgloss.JoinVertical(lipgloss.Left,
		CreateSubPageHeader(title),
		"",
		AddFormPadding(m.form.View()),
		help,
	)
}

func (m Model) renderDeleteConfirmView() string {
	if m.deleteConfirm == nil || m.selectedTemplate == nil {
		return ""
	}
	modal := StyleModal.Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render(fmt.Sprintf("Delete '%s'?", m.selectedTemplate.Name)),
		"",
		m.deleteConfirm.View(),
		"",
		StyleTextDim.Render("↑/↓ choose • enter confirm • Esc cancel"),
	))
	return CenterModal(modal, m.width-4, m.height-2)
}

func (m Model) renderBuilderView() string {
	tabs := CreateTabs(tabLabels, m.activeTab())
	essential, additional := m.builder.Help()
	help := CreateContextualHelp(essential, additional, m.showExpandedHelp, m.width)
	return lipgloss.JoinVertical(lipgloss.Left, tabs, m.builder.View(), help)
}

func (m Model) renderHelpModal() string {
	m.help.ShowAll = true
	body := m.help.View(m.keys)
	modal := StyleModal.Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render("Keyboard Shortcuts"),
		"",
		body,
		"",
		StyleTextDim.Render("? or Esc to close"),
	))
	return CenterModal(modal, m.width, m.height)
}
