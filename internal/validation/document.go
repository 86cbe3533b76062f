package validation

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	themesSchema   = "themes.schema.json"
	keywordsSchema = "keywords.schema.json"
)

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	names := []string{themesSchema, keywordsSchema}
	for _, name := range names {
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			compileErr = fmt.Errorf("failed to read schema %s: %w", name, err)
			return
		}
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			compileErr = fmt.Errorf("failed to load schema %s: %w", name, err)
			return
		}
	}

	compiled = make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		schema, err := compiler.Compile(name)
		if err != nil {
			compileErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
			return
		}
		compiled[name] = schema
	}
}

func validateDocument(name string, doc interface{}) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}
	return compiled[name].Validate(doc)
}

// ValidateThemesDocument checks the top-level shape of a decoded
// theme_prompts.json document. Individual entries are checked by the store.
func ValidateThemesDocument(doc interface{}) error {
	return validateDocument(themesSchema, doc)
}

// ValidateKeywordsDocument checks the top-level shape of a decoded
// keyword_library.json document.
func ValidateKeywordsDocument(doc interface{}) error {
	return validateDocument(keywordsSchema, doc)
}
