package service

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dpshade/prompt-genie/internal/clipboard"
	"github.com/dpshade/prompt-genie/internal/config"
	"github.com/dpshade/prompt-genie/internal/errors"
	"github.com/dpshade/prompt-genie/internal/models"
	"github.com/dpshade/prompt-genie/internal/renderer"
	"github.com/dpshade/prompt-genie/internal/storage"
)

// Service provides business logic for the template library and the keyword builder
type Service struct {
	cfg       *config.Config
	logger    zerolog.Logger
	templates *TemplateStore
	keywords  *KeywordModel

	copy func(string) (string, error)
}

// NewService creates a service for cfg. Call Load before use.
func NewService(cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		logger:    logger.With().Str("component", "service").Logger(),
		templates: NewTemplateStore(logger),
		keywords:  NewKeywordModel(logger),
		copy:      clipboard.CopyWithFallback,
	}
}

// Config returns the settings the service was built with
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Templates returns the template store
func (s *Service) Templates() *TemplateStore {
	return s.templates
}

// Keywords returns the keyword selection model
func (s *Service) Keywords() *KeywordModel {
	return s.keywords
}

// Load reads both data files. Each store is usable even when its file could
// not be read; the returned error joins whatever went wrong.
func (s *Service) Load() error {
	templatesErr := s.templates.Load(s.cfg.ThemesPath())
	keywordsErr := s.keywords.Load(s.cfg.KeywordsPath())

	s.logger.Info().
		Int("templates", s.templates.Len()).
		Int("keywords", s.keywords.Catalog().Len()).
		Msg("data loaded")

	return stderrors.Join(templatesErr, keywordsErr)
}

// ReloadKeywords re-reads the keyword catalog, keeping the selection where possible
func (s *Service) ReloadKeywords() error {
	return s.keywords.Reload()
}

// CopyTemplate copies a template's prompt to the clipboard
func (s *Service) CopyTemplate(ref string) (string, error) {
	t, err := s.templates.Resolve(ref)
	if err != nil {
		return "", err
	}
	return s.copyText(t.Prompt)
}

// CopyTemplateMessages copies a template as a JSON chat-message array
func (s *Service) CopyTemplateMessages(ref string) (string, error) {
	t, err := s.templates.Resolve(ref)
	if err != nil {
		return "", err
	}
	encoded, err := renderer.NewRenderer(t).RenderJSON()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "encode messages")
	}
	return s.copyText(encoded)
}

// CopyPreview copies the rendered keyword preview to the clipboard. Nothing is
// copied while no keyword is checked.
func (s *Service) CopyPreview() (string, error) {
	preview := s.keywords.RenderPreview()
	if preview == PreviewPlaceholder {
		return "", errors.NewAppError(errors.ErrCodeInvalidInput, "no keywords selected")
	}
	return s.copyText(preview)
}

func (s *Service) copyText(text string) (string, error) {
	msg, err := s.copy(text)
	if err != nil {
		var clipErr *clipboard.ClipboardError
		if stderrors.As(err, &clipErr) {
			return "", errors.Wrap(err, errors.ErrCodeClipboardUnavailable, "clipboard unavailable").WithDetails(clipErr.Message)
		}
		if stderrors.Is(err, clipboard.ErrNothingToCopy) {
			return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "nothing to copy")
		}
		return "", errors.Wrap(err, errors.ErrCodeCommandFailed, "copy failed")
	}
	s.logger.Debug().Int("length", len([]rune(text))).Msg("copied to clipboard")
	return msg, nil
}

// ParseSelection splits a "category:word" reference. The category may be a
// key or a display name.
func ParseSelection(ref string) (category, word string, err error) {
	category, word, ok := strings.Cut(ref, ":")
	category, word = strings.TrimSpace(category), strings.TrimSpace(word)
	if !ok || category == "" || word == "" {
		return "", "", errors.NewAppError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("keyword reference %q must look like category:word", ref))
	}
	return category, word, nil
}

// Compose checks each "category:word" reference and returns the rendered
// preview. References naming unknown keywords are returned separately and
// do not change the selection.
func (s *Service) Compose(refs []string) (preview string, unknown []string, err error) {
	for _, ref := range refs {
		category, word, err := ParseSelection(ref)
		if err != nil {
			return "", nil, err
		}
		if !s.keywords.SetChecked(category, word, true) {
			unknown = append(unknown, ref)
		}
	}
	return s.keywords.RenderPreview(), unknown, nil
}

// ImportTemplates merges the templates of another library file into this one
func (s *Service) ImportTemplates(path string, overwrite bool) (ImportResult, error) {
	templates, err := storage.NewThemeFile(path, s.logger).Load()
	if err != nil {
		return ImportResult{}, err
	}
	if len(templates) == 0 {
		return ImportResult{}, errors.NotFoundError("templates in " + path)
	}
	return s.templates.Import(templates, overwrite)
}

// ExportTemplates encodes the templates passing the filters in format
func (s *Service) ExportTemplates(filterText, filterCategory, format string) ([]byte, error) {
	var selected []models.Template
	for t := range s.templates.List(filterText, filterCategory) {
		selected = append(selected, t)
	}
	data, err := renderer.Export(selected, format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "export failed")
	}
	return data, nil
}
