package validation

import (
	"github.com/dpshade/prompt-genie/internal/errors"
)

// Template field limits.
const (
	MaxTitleLength  = 100
	MaxPromptLength = 10000
)

// Schema names registered by NewValidator.
const (
	SchemaTemplate      = "template"
	SchemaListTemplates = "list_templates"
	SchemaExport        = "export"
)

func (v *Validator) registerBuiltinSchemas() {
	v.RegisterSchema(&Schema{
		Name:  SchemaTemplate,
		Order: []string{"title", "prompt", "category", "description"},
		Fields: map[string]FieldValidator{
			"title": {
				Name:      "title",
				Type:      "string",
				Required:  true,
				MaxLength: MaxTitleLength,
			},
			"prompt": {
				Name:      "prompt",
				Type:      "string",
				Required:  true,
				MaxLength: MaxPromptLength,
			},
			"category": {
				Name: "category",
				Type: "string",
			},
			"description": {
				Name: "description",
				Type: "string",
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: SchemaListTemplates,
		Fields: map[string]FieldValidator{
			"filter": {
				Name:      "filter",
				Type:      "string",
				MaxLength: MaxTitleLength,
			},
			"category": {
				Name: "category",
				Type: "string",
			},
			"format": {
				Name:    "format",
				Type:    "string",
				Options: []string{"table", "json", "yaml", "titles"},
			},
		},
	})

	v.RegisterSchema(&Schema{
		Name: SchemaExport,
		Fields: map[string]FieldValidator{
			"format": {
				Name:     "format",
				Type:     "string",
				Required: true,
				Options:  []string{"json", "yaml", "messages"},
			},
		},
	})
}

var defaultValidator = NewValidator()

// ValidateTemplate checks the user-editable template fields. It returns nil
// when the template may be stored.
func ValidateTemplate(category, title, description, prompt string) *errors.AppError {
	result := defaultValidator.Validate(SchemaTemplate, map[string]interface{}{
		"category":    category,
		"title":       title,
		"description": description,
		"prompt":      prompt,
	})
	return result.ToAppError()
}

// ValidateOptions validates CLI parameters against one of the built-in schemas.
func ValidateOptions(schemaName string, params map[string]interface{}) *errors.AppError {
	return defaultValidator.Validate(schemaName, params).ToAppError()
}
