package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/service"
)

type builderPane int

const (
	paneCategories builderPane = iota
	paneKeywords
)

// KeywordBuilder is the keyword selection screen: categories on the left,
// the focused category's keywords in the middle and the preview on the right.
type KeywordBuilder struct {
	svc *service.Service

	pane      builderPane
	catCursor int
	kwCursor  int
	kwOffset  int

	filter    textinput.Model
	filtering bool

	width  int
	height int
}

// NewKeywordBuilder creates the builder over the service's keyword model
func NewKeywordBuilder(svc *service.Service) *KeywordBuilder {
	ti := textinput.New()
	ti.Placeholder = "filter keywords"
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 30

	return &KeywordBuilder{
		svc:    svc,
		filter: ti,
		width:  80,
		height: 20,
	}
}

// Resize sets the area available to the builder
func (b *KeywordBuilder) Resize(width, height int) {
	b.width = width
	b.height = height
	b.clamp()
}

// IsFiltering reports whether keystrokes go to the filter input
func (b *KeywordBuilder) IsFiltering() bool {
	return b.filtering
}

// Categories returns the catalog's categories
func (b *KeywordBuilder) categories() []models.Category {
	return b.svc.Keywords().Categories()
}

// CurrentCategory returns the focused category, if any
func (b *KeywordBuilder) CurrentCategory() (models.Category, bool) {
	cats := b.categories()
	if len(cats) == 0 {
		return models.Category{}, false
	}
	return cats[b.catCursor], true
}

// VisibleKeywords returns the focused category's keywords passing the filter
func (b *KeywordBuilder) VisibleKeywords() []models.Keyword {
	cat, ok := b.CurrentCategory()
	if !ok {
		return nil
	}
	return b.svc.Keywords().FilterEntries(cat.Key, b.filter.Value())
}

// CurrentKeyword returns the keyword under the cursor, if any
func (b *KeywordBuilder) CurrentKeyword() (models.Keyword, bool) {
	entries := b.VisibleKeywords()
	if b.kwCursor < 0 || b.kwCursor >= len(entries) {
		return models.Keyword{}, false
	}
	return entries[b.kwCursor], true
}

// Reloaded keeps the cursors inside the catalog after it changed on disk
func (b *KeywordBuilder) Reloaded() {
	b.clamp()
}

func (b *KeywordBuilder) clamp() {
	cats := b.categories()
	if b.catCursor >= len(cats) {
		b.catCursor = max(len(cats)-1, 0)
	}
	entries := b.VisibleKeywords()
	if b.kwCursor >= len(entries) {
		b.kwCursor = max(len(entries)-1, 0)
	}
	rows := b.visibleRows()
	if b.kwCursor < b.kwOffset {
		b.kwOffset = b.kwCursor
	}
	if b.kwCursor >= b.kwOffset+rows {
		b.kwOffset = b.kwCursor - rows + 1
	}
	if b.kwOffset < 0 {
		b.kwOffset = 0
	}
}

// visibleRows is how many keyword rows fit in the middle pane
func (b *KeywordBuilder) visibleRows() int {
	rows := b.height - 6
	if rows < 3 {
		rows = 3
	}
	return rows
}

// Update handles a key press and returns a command when the builder has a
// status to report
func (b *KeywordBuilder) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if b.filtering {
			var cmd tea.Cmd
			b.filter, cmd = b.filter.Update(msg)
			return cmd
		}
		return nil
	}

	if b.filtering {
		switch keyMsg.String() {
		case "esc":
			b.filter.SetValue("")
			b.stopFiltering()
		case "enter":
			b.stopFiltering()
		default:
			var cmd tea.Cmd
			b.filter, cmd = b.filter.Update(msg)
			b.kwCursor, b.kwOffset = 0, 0
			return cmd
		}
		return nil
	}

	switch keyMsg.String() {
	case "/":
		b.filtering = true
		b.pane = paneKeywords
		return b.filter.Focus()
	case "tab", "shift+tab":
		if b.pane == paneCategories {
			b.pane = paneKeywords
		} else {
			b.pane = paneCategories
		}
	case "left", "h":
		b.pane = paneCategories
	case "right", "l":
		b.pane = paneKeywords
	case "up", "k":
		b.move(-1)
	case "down", "j":
		b.move(1)
	case "home", "g":
		b.moveTo(0)
	case "end", "G":
		b.moveTo(-1)
	case " ", "enter":
		if b.pane == paneCategories {
			b.pane = paneKeywords
			return nil
		}
		return b.toggleCurrent()
	case "x":
		if b.svc.Keywords().SelectedCount() == 0 {
			return nil
		}
		b.svc.Keywords().ClearAll()
		return statusCmd("Selection cleared", nil)
	case "c":
		text, err := b.svc.CopyPreview()
		return statusCmd(text, err)
	}
	return nil
}

func (b *KeywordBuilder) stopFiltering() {
	b.filtering = false
	b.filter.Blur()
	b.kwCursor, b.kwOffset = 0, 0
}

func (b *KeywordBuilder) move(delta int) {
	if b.pane == paneCategories {
		cats := b.categories()
		if len(cats) == 0 {
			return
		}
		b.catCursor = (b.catCursor + delta + len(cats)) % len(cats)
		b.kwCursor, b.kwOffset = 0, 0
		return
	}

	entries := b.VisibleKeywords()
	if len(entries) == 0 {
		return
	}
	b.kwCursor = (b.kwCursor + delta + len(entries)) % len(entries)
	b.clamp()
}

func (b *KeywordBuilder) moveTo(index int) {
	if b.pane == paneCategories {
		if index < 0 {
			index = len(b.categories()) - 1
		}
		b.catCursor = max(index, 0)
		b.kwCursor, b.kwOffset = 0, 0
		return
	}
	if index < 0 {
		index = len(b.VisibleKeywords()) - 1
	}
	b.kwCursor = max(index, 0)
	b.clamp()
}

func (b *KeywordBuilder) toggleCurrent() tea.Cmd {
	kw, ok := b.CurrentKeyword()
	if !ok {
		return nil
	}
	b.svc.Keywords().Toggle(kw.Category, kw.Word)
	return nil
}

// View renders the three panes side by side with the filter and help below
func (b *KeywordBuilder) View() string {
	catWidth := b.width / 4
	if catWidth < 18 {
		catWidth = 18
	}
	kwWidth := b.width * 2 / 5
	if kwWidth < 24 {
		kwWidth = 24
	}
	previewWidth := b.width - catWidth - kwWidth - 6
	if previewWidth < 20 {
		previewWidth = 20
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		b.paneStyle(paneCategories).Width(catWidth).Render(b.renderCategories(catWidth)),
		b.paneStyle(paneKeywords).Width(kwWidth).Render(b.renderKeywords(kwWidth)),
		StylePane.Width(previewWidth).Render(b.renderPreview()),
	)

	var filterLine string
	if b.filtering || b.filter.Value() != "" {
		filterLine = b.filter.View()
	}

	count := b.svc.Keywords().SelectedCount()
	header := CreateMetadata(fmt.Sprintf("%d keyword(s) selected", count))

	elements := []string{header, panes}
	if filterLine != "" {
		elements = append(elements, filterLine)
	}
	return lipgloss.JoinVertical(lipgloss.Left, elements...)
}

func (b *KeywordBuilder) paneStyle(pane builderPane) lipgloss.Style {
	if b.pane == pane {
		return StylePaneFocused
	}
	return StylePane
}

func (b *KeywordBuilder) renderCategories(width int) string {
	cats := b.categories()
	if len(cats) == 0 {
		return StyleTextMuted.Render("No keyword categories")
	}

	lines := make([]string, 0, len(cats))
	for i, c := range cats {
		marker := "+"
		if c.Polarity == models.Negative {
			marker = "-"
		}
		label := truncate(marker+" "+c.Name, width-4)
		lines = append(lines, CreateOption(label, i == b.catCursor, b.pane == paneCategories))
	}
	return strings.Join(lines, "\n")
}

func (b *KeywordBuilder) renderKeywords(width int) string {
	entries := b.VisibleKeywords()
	if len(entries) == 0 {
		if b.filter.Value() != "" {
			return StyleTextMuted.Render("No keywords match the filter")
		}
		return StyleTextMuted.Render("No keywords")
	}

	rows := b.visibleRows()
	end := min(b.kwOffset+rows, len(entries))

	kw := b.svc.Keywords()
	lines := make([]string, 0, rows+2)
	top, bottom := CreateScrollIndicators(b.kwOffset > 0, end < len(entries))
	lines = append(lines, top)
	for i := b.kwOffset; i < end; i++ {
		e := entries[i]
		label := e.Word
		if e.Translation != "" {
			label += " · " + e.Translation
		}
		label = truncate(label, width-6)
		focused := b.pane == paneKeywords && i == b.kwCursor
		lines = append(lines, CreateCheckbox(label, kw.IsChecked(e.Category, e.Word), focused))
	}
	lines = append(lines, bottom)
	return strings.Join(lines, "\n")
}

func (b *KeywordBuilder) renderPreview() string {
	preview := b.svc.Keywords().RenderPreview()
	if preview == service.PreviewPlaceholder {
		return StyleTextMuted.Render(preview)
	}

	lines := strings.Split(preview, "\n")
	for i, line := range lines {
		switch line {
		case "Positive:":
			lines[i] = StylePositive.Render(line)
		case "Negative:":
			lines[i] = StyleNegative.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// Help returns the builder's key hints
func (b *KeywordBuilder) Help() (essential, additional []string) {
	if b.filtering {
		return []string{"type to filter • enter keep • esc clear"}, nil
	}
	return []string{"space toggle • c copy preview • x clear all"},
		[]string{"←/→ switch pane • ↑/↓ move • / filter", "tab templates • q quit"}
}
