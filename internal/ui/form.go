package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/validation"
)

// TemplateForm handles template creation and editing
type TemplateForm struct {
	inputs    []textinput.Model
	textarea  textarea.Model
	focused   int
	submitted bool

	editingID string
}

// Template form field indices
const (
	categoryField = iota
	titleField
	descriptionField
	promptField
)

var formLabels = [...]string{
	categoryField:    "Category",
	titleField:       "Title",
	descriptionField: "Description",
	promptField:      "Prompt",
}

// NewTemplateForm creates an empty template form with helpful placeholders
func NewTemplateForm() *TemplateForm {
	inputs := make([]textinput.Model, 3)

	inputs[categoryField] = textinput.New()
	inputs[categoryField].Placeholder = models.DefaultCategory
	inputs[categoryField].Focus()
	inputs[categoryField].Width = 40

	inputs[titleField] = textinput.New()
	inputs[titleField].Placeholder = "Template title"
	inputs[titleField].CharLimit = validation.MaxTitleLength
	inputs[titleField].Width = 60

	inputs[descriptionField] = textinput.New()
	inputs[descriptionField].Placeholder = "Brief description of the template"
	inputs[descriptionField].Width = 60

	ta := textarea.New()
	ta.Placeholder = "positive prompt ||| negative prompt"
	ta.CharLimit = validation.MaxPromptLength
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(80)
	ta.SetHeight(10)

	return &TemplateForm{
		inputs:   inputs,
		textarea: ta,
		focused:  categoryField,
	}
}

// SetCategorySuggestions offers existing categories for autocomplete
func (f *TemplateForm) SetCategorySuggestions(categories []string) {
	if len(categories) == 0 {
		return
	}
	f.inputs[categoryField].SetSuggestions(categories)
	f.inputs[categoryField].ShowSuggestions = true

	// Tab moves between fields, so suggestions are accepted with ctrl+space or right
	keyMap := textinput.DefaultKeyMap
	keyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("ctrl+space", "right"))
	f.inputs[categoryField].KeyMap = keyMap
}

// Update handles template form updates
func (f *TemplateForm) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			f.nextField()
			return nil
		case "shift+tab":
			f.prevField()
			return nil
		case "ctrl+s":
			f.submitted = true
			return nil
		case "down", "enter":
			if f.focused != promptField {
				f.nextField()
				return nil
			}
		case "up":
			if f.focused != promptField {
				f.prevField()
				return nil
			}
		case "alt+up", "ctrl+home":
			if f.focused == promptField {
				var cmd tea.Cmd
				f.textarea, cmd = f.textarea.Update(tea.KeyMsg{Type: tea.KeyCtrlHome})
				return cmd
			}
		case "alt+down", "ctrl+end":
			if f.focused == promptField {
				var cmd tea.Cmd
				f.textarea, cmd = f.textarea.Update(tea.KeyMsg{Type: tea.KeyCtrlEnd})
				return cmd
			}
		}
	}

	var cmd tea.Cmd
	if f.focused == promptField {
		f.textarea, cmd = f.textarea.Update(msg)
	} else {
		f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	}
	return cmd
}

// Resize updates template form dimensions based on window size
func (f *TemplateForm) Resize(width, height int) {
	// title, three single-line fields with labels, help and margins
	availableHeight := height - 18
	if availableHeight < 5 {
		availableHeight = 5
	}
	f.textarea.SetWidth(width - 10)
	f.textarea.SetHeight(availableHeight)
}

func (f *TemplateForm) blurFocused() {
	if f.focused == promptField {
		f.textarea.Blur()
	} else {
		f.inputs[f.focused].Blur()
	}
}

func (f *TemplateForm) focusCurrent() {
	if f.focused == promptField {
		f.textarea.Focus()
	} else {
		f.inputs[f.focused].Focus()
	}
}

// nextField moves to the next form field
func (f *TemplateForm) nextField() {
	f.blurFocused()
	f.focused = (f.focused + 1) % len(formLabels)
	f.focusCurrent()
}

// prevField moves to the previous form field
func (f *TemplateForm) prevField() {
	f.blurFocused()
	f.focused = (f.focused + len(formLabels) - 1) % len(formLabels)
	f.focusCurrent()
}

// IsInContentField returns true if the prompt textarea is focused
func (f *TemplateForm) IsInContentField() bool {
	return f.focused == promptField
}

// FocusedField returns the label of the focused field
func (f *TemplateForm) FocusedField() string {
	return formLabels[f.focused]
}

// ToDraft converts the form values to a draft for the store
func (f *TemplateForm) ToDraft() models.TemplateDraft {
	return models.TemplateDraft{
		Category:    strings.TrimSpace(f.inputs[categoryField].Value()),
		Title:       strings.TrimSpace(f.inputs[titleField].Value()),
		Description: strings.TrimSpace(f.inputs[descriptionField].Value()),
		Prompt:      strings.TrimSpace(f.textarea.Value()),
	}
}

// Validate checks the form values against the store's limits
func (f *TemplateForm) Validate() error {
	d := f.ToDraft()
	if err := validation.ValidateTemplate(d.Category, d.Title, d.Description, d.Prompt); err != nil {
		return err
	}
	return nil
}

// LoadTemplate loads an existing template into the form for editing
func (f *TemplateForm) LoadTemplate(t models.Template) {
	f.editingID = t.ID
	f.inputs[categoryField].SetValue(t.Category)
	f.inputs[titleField].SetValue(t.Name)
	summary := t.Summary
	if summary == models.DefaultDescription {
		summary = ""
	}
	f.inputs[descriptionField].SetValue(summary)
	f.textarea.SetValue(t.Prompt)
}

// EditingID returns the id of the template being edited, or "" for a new one
func (f *TemplateForm) EditingID() string {
	return f.editingID
}

// IsSubmitted returns whether the form has been submitted
func (f *TemplateForm) IsSubmitted() bool {
	return f.submitted
}

// ClearSubmitted lets the form be submitted again after a rejected save
func (f *TemplateForm) ClearSubmitted() {
	f.submitted = false
}

// View renders the labelled fields
func (f *TemplateForm) View() string {
	var b strings.Builder
	for i := categoryField; i <= descriptionField; i++ {
		b.WriteString(f.label(i))
		b.WriteString("\n")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n\n")
	}
	b.WriteString(f.label(promptField))
	b.WriteString("\n")
	b.WriteString(f.textarea.View())
	return b.String()
}

func (f *TemplateForm) label(field int) string {
	text := formLabels[field]
	if field == f.focused {
		return StyleSelected.Render("▶ " + text)
	}
	return StyleFormLabel.Render("  " + text)
}

// Reset resets the template form
func (f *TemplateForm) Reset() {
	f.blurFocused()
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.textarea.SetValue("")
	f.focused = categoryField
	f.submitted = false
	f.editingID = ""
	f.focusCurrent()
}

// SelectForm handles selection from a list of options
type SelectForm struct {
	options   []SelectOption
	selected  int
	submitted bool
}

// SelectOption represents an option in the select form
type SelectOption struct {
	Label       string
	Description string
	Value       string
}

// NewSelectForm creates a new select form
func NewSelectForm(options []SelectOption) *SelectForm {
	return &SelectForm{options: options}
}

// Update handles select form updates
func (f *SelectForm) Update(msg tea.Msg) tea.Cmd {
	if len(f.options) == 0 {
		return nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k", "left", "h":
			f.selected = (f.selected + len(f.options) - 1) % len(f.options)
		case "down", "j", "right", "l":
			f.selected = (f.selected + 1) % len(f.options)
		case "enter":
			f.submitted = true
		}
	}
	return nil
}

// GetSelected returns the selected option
func (f *SelectForm) GetSelected() *SelectOption {
	if f.selected >= 0 && f.selected < len(f.options) {
		return &f.options[f.selected]
	}
	return nil
}

// IsSubmitted returns whether an option has been selected
func (f *SelectForm) IsSubmitted() bool {
	return f.submitted
}

// View renders the options
func (f *SelectForm) View() string {
	lines := make([]string, len(f.options))
	for i, opt := range f.options {
		line := CreateOption(opt.Label, i == f.selected, true)
		if opt.Description != "" {
			line += StyleTextDim.Render("  " + opt.Description)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Reset resets the select form
func (f *SelectForm) Reset() {
	f.selected = 0
	f.submitted = false
}
