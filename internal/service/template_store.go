package service

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/storage"
	"github.com/dpshade/prompt-genie/internal/validation"
)

// TemplateStore holds the template library in memory and persists every
// mutation to its ThemeFile. It is not safe for concurrent use.
type TemplateStore struct {
	file      *storage.ThemeFile
	templates []models.Template
	logger    zerolog.Logger
	now       func() time.Time
	newID     func(t models.Template, seq int) string
	loadErr   error
}

// NewTemplateStore creates an empty store. Call Load to read a library file.
func NewTemplateStore(logger zerolog.Logger) *TemplateStore {
	return &TemplateStore{
		logger: logger.With().Str("component", "template_store").Logger(),
		now:    time.Now,
		newID:  templateID,
	}
}

var templateIDSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("prompt-genie/theme_prompts"))

// templateID derives an id from the title and creation time as they are
// written to disk, so an entry gets the same id in every run. seq tells
// apart entries that share both.
func templateID(t models.Template, seq int) string {
	created := ""
	if !t.CreatedAt.IsZero() {
		created = models.FormatTimestamp(t.CreatedAt)
	}
	return uuid.NewSHA1(templateIDSpace, []byte(fmt.Sprintf("%s\x00%s\x00%d", t.Name, created, seq))).String()
}

// assignID gives t the first id not already used in templates
func (s *TemplateStore) assignID(templates []models.Template, t *models.Template) {
	for seq := 0; ; seq++ {
		id := s.newID(*t, seq)
		if indexOf(templates, id) < 0 {
			t.ID = id
			return
		}
	}
}

// Load replaces the in-memory library with the contents of path. Whatever
// the outcome, the store is usable afterwards: on error it is empty and the
// error (ParseError or PersistenceError) is returned for the caller to report.
// Until the next successful Load, Save refuses to write so an unreadable
// file is never replaced.
func (s *TemplateStore) Load(path string) error {
	s.file = storage.NewThemeFile(path, s.logger)
	templates, err := s.file.Load()
	for i := range templates {
		s.assignID(templates[:i], &templates[i])
	}
	s.templates = templates
	s.loadErr = err
	return err
}

// LoadErr returns the error of the last Load, if any
func (s *TemplateStore) LoadErr() error {
	return s.loadErr
}

// Path returns the library file the store persists to
func (s *TemplateStore) Path() string {
	if s.file == nil {
		return ""
	}
	return s.file.Path()
}

// Len returns the number of templates
func (s *TemplateStore) Len() int {
	return len(s.templates)
}

// List returns the templates that pass the browser filters, in store order.
// filterCategory must equal the template category exactly; filterText is
// matched case-insensitively against title and description. Empty filters
// match everything. The sequence re-reads the store each time it is ranged
// over and yields copies.
func (s *TemplateStore) List(filterText, filterCategory string) iter.Seq[models.Template] {
	return func(yield func(models.Template) bool) {
		for i := 0; i < len(s.templates); i++ {
			t := s.templates[i]
			if !t.Matches(filterText, filterCategory) {
				continue
			}
			if !yield(t.Clone()) {
				return
			}
		}
	}
}

// All returns a copy of every template in store order
func (s *TemplateStore) All() []models.Template {
	out := make([]models.Template, 0, len(s.templates))
	for t := range s.List("", "") {
		out = append(out, t)
	}
	return out
}

// Get returns the template with the given id
func (s *TemplateStore) Get(id string) (models.Template, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.Template{}, errors.NotFoundError(fmt.Sprintf("template %q", id))
	}
	return s.templates[i].Clone(), nil
}

// FindByTitle returns the first template whose title equals title. Titles are
// not unique; prefer ids for anything that mutates.
func (s *TemplateStore) FindByTitle(title string) (models.Template, error) {
	for _, t := range s.templates {
		if t.Name == title {
			return t.Clone(), nil
		}
	}
	return models.Template{}, errors.NotFoundError(fmt.Sprintf("template titled %q", title))
}

// Resolve finds a template by id, title or unique id prefix, in that order
func (s *TemplateStore) Resolve(ref string) (models.Template, error) {
	if ref == "" {
		return models.Template{}, errors.NewAppError(errors.ErrCodeInvalidInput, "template reference is empty")
	}
	if t, err := s.Get(ref); err == nil {
		return t, nil
	}
	if t, err := s.FindByTitle(ref); err == nil {
		return t, nil
	}

	var match *models.Template
	for i := range s.templates {
		if strings.HasPrefix(s.templates[i].ID, ref) {
			if match != nil {
				return models.Template{}, errors.NewAppError(errors.ErrCodeInvalidInput,
					fmt.Sprintf("id prefix %q is ambiguous", ref))
			}
			match = &s.templates[i]
		}
	}
	if match == nil {
		return models.Template{}, errors.NotFoundError(fmt.Sprintf("template %q", ref))
	}
	return match.Clone(), nil
}

// Categories returns the distinct template categories, sorted
func (s *TemplateStore) Categories() []string {
	seen := make(map[string]bool)
	var categories []string
	for _, t := range s.templates {
		if !seen[t.Category] {
			seen[t.Category] = true
			categories = append(categories, t.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

// Create validates draft, appends it as a new template and saves the library.
// A failed save removes the template again so memory matches disk.
func (s *TemplateStore) Create(draft models.TemplateDraft) (models.Template, error) {
	var t models.Template
	t.Apply(draft)
	if err := validation.ValidateTemplate(t.Category, t.Name, t.Summary, t.Prompt); err != nil {
		s.logger.Warn().Str("reason", err.Message).Msg("rejected template")
		return models.Template{}, err
	}

	now := s.now()
	t.CreatedAt = now
	t.LastModified = now
	s.assignID(s.templates, &t)

	previous := s.templates
	s.templates = append(append(make([]models.Template, 0, len(previous)+1), previous...), t)
	if err := s.Save(); err != nil {
		s.templates = previous
		return models.Template{}, err
	}

	s.logger.Info().Str("id", t.ID).Str("title", t.Name).Msg("created template")
	return t.Clone(), nil
}

// Update merges draft into the template with the given id and saves the
// library. Creation time and keys this program does not manage are kept.
func (s *TemplateStore) Update(id string, draft models.TemplateDraft) (models.Template, error) {
	i := s.indexOf(id)
	if i < 0 {
		return models.Template{}, errors.NotFoundError(fmt.Sprintf("template %q", id))
	}

	updated := s.templates[i].Clone()
	updated.Apply(draft)
	if err := validation.ValidateTemplate(updated.Category, updated.Name, updated.Summary, updated.Prompt); err != nil {
		s.logger.Warn().Str("id", id).Str("reason", err.Message).Msg("rejected template update")
		return models.Template{}, err
	}
	updated.LastModified = s.now()

	previous := s.templates[i]
	s.templates[i] = updated
	if err := s.Save(); err != nil {
		s.templates[i] = previous
		return models.Template{}, err
	}

	s.logger.Info().Str("id", id).Str("title", updated.Name).Msg("updated template")
	return updated.Clone(), nil
}

// Delete removes the template with the given id and saves the library
func (s *TemplateStore) Delete(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return errors.NotFoundError(fmt.Sprintf("template %q", id))
	}

	previous := s.templates
	s.templates = append(append(make([]models.Template, 0, len(previous)-1), previous[:i]...), previous[i+1:]...)
	if err := s.Save(); err != nil {
		s.templates = previous
		return err
	}

	s.logger.Info().Str("id", id).Str("title", previous[i].Name).Msg("deleted template")
	return nil
}

// ImportResult summarizes a template import
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Import merges templates into the library and saves once. A template whose
// category and title match an existing one replaces its fields when overwrite
// is set and is skipped otherwise. Invalid templates are skipped. A failed
// save leaves the library as it was.
func (s *TemplateStore) Import(incoming []models.Template, overwrite bool) (ImportResult, error) {
	var result ImportResult

	previous := s.templates
	merged := make([]models.Template, len(previous), len(previous)+len(incoming))
	for i := range previous {
		merged[i] = previous[i].Clone()
	}

	now := s.now()
	for _, in := range incoming {
		in = in.Clone()
		in.Normalize()
		if err := validation.ValidateTemplate(in.Category, in.Name, in.Summary, in.Prompt); err != nil {
			s.logger.Warn().Str("title", in.Name).Str("reason", err.Message).Msg("skipping invalid import")
			result.Skipped++
			continue
		}

		existing := -1
		for i := range merged {
			if merged[i].Category == in.Category && merged[i].Name == in.Name {
				existing = i
				break
			}
		}

		switch {
		case existing >= 0 && !overwrite:
			result.Skipped++
		case existing >= 0:
			merged[existing].Apply(in.Draft())
			merged[existing].LastModified = now
			result.Updated++
		default:
			if in.CreatedAt.IsZero() {
				in.CreatedAt = now
			}
			if in.LastModified.IsZero() {
				in.LastModified = now
			}
			s.assignID(merged, &in)
			merged = append(merged, in)
			result.Added++
		}
	}

	if result.Added == 0 && result.Updated == 0 {
		return result, nil
	}

	s.templates = merged
	if err := s.Save(); err != nil {
		s.templates = previous
		return ImportResult{}, err
	}

	s.logger.Info().Int("added", result.Added).Int("updated", result.Updated).Int("skipped", result.Skipped).Msg("imported templates")
	return result, nil
}

// Save writes the whole library to disk. Every template is validated first;
// nothing is written if any of them is invalid.
func (s *TemplateStore) Save() error {
	if s.file == nil {
		return errors.PersistenceError("save", fmt.Errorf("no library file loaded"))
	}
	if s.loadErr != nil {
		return errors.PersistenceError("save", fmt.Errorf("%s could not be read: %w", s.file.Path(), s.loadErr))
	}

	for i, t := range s.templates {
		if err := validation.ValidateTemplate(t.Category, t.Name, t.Summary, t.Prompt); err != nil {
			return err.WithContext("index", i).WithContext("title", t.Name)
		}
	}

	return s.file.Save(s.templates)
}

func (s *TemplateStore) indexOf(id string) int {
	return indexOf(s.templates, id)
}

func indexOf(templates []models.Template, id string) int {
	if id == "" {
		return -1
	}
	for i := range templates {
		if templates[i].ID == id {
			return i
		}
	}
	return -1
}
