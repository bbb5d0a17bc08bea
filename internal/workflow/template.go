// Package workflow loads, validates, and publishes workflow templates.
// A template defines the intake form coordinators fill at one journey
// stage: its fields, their types, and their options. Templates are written
// as YAML files and pushed to the backend, which versions them.
package workflow

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates a template definition that fails validation.
var ErrInvalid = errors.New("invalid template definition")

// FieldType represents the type of a template field.
type FieldType string

// Supported field types for intake forms.
const (
	FieldTypeString      FieldType = "string"
	FieldTypeText        FieldType = "text"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multi-select"
)

// IsValid checks if the field type is a supported type.
func (ft FieldType) IsValid() bool {
	switch ft {
	case FieldTypeString, FieldTypeText, FieldTypeSelect, FieldTypeMultiSelect:
		return true
	default:
		return false
	}
}

// Template defines one intake form.
type Template struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Stage       string  `yaml:"stage" json:"stage"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// Field defines a single input field in an intake form.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Label       string    `yaml:"label" json:"label"`
	Type        FieldType `yaml:"type" json:"type"`
	Required    bool      `yaml:"required" json:"required"`
	Default     string    `yaml:"default" json:"default,omitempty"`
	Placeholder string    `yaml:"placeholder" json:"placeholder,omitempty"`
	Options     []Option  `yaml:"options" json:"options,omitempty"`
}

// Option defines an option for select or multi-select fields.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Load reads and validates a template definition from a YAML file.
func Load(path string) (Template, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's command line
	if err != nil {
		return Template{}, fmt.Errorf("read template file: %w", err)
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("parse template file: %w", err)
	}

	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

// Validate checks that the template definition is valid.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if t.Stage == "" {
		return fmt.Errorf("%w: template %q: stage is required", ErrInvalid, t.Name)
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("%w: template %q: at least one field is required", ErrInvalid, t.Name)
	}

	fieldNames := make(map[string]bool)
	for i, field := range t.Fields {
		if field.Name == "" {
			return fmt.Errorf("%w: template %q: field %d: name is required", ErrInvalid, t.Name, i)
		}
		if fieldNames[field.Name] {
			return fmt.Errorf("%w: template %q: duplicate field name %q", ErrInvalid, t.Name, field.Name)
		}
		fieldNames[field.Name] = true

		if err := field.validate(t.Name); err != nil {
			return err
		}
	}

	return nil
}

// validate checks that a field definition is valid.
func (f *Field) validate(templateName string) error {
	if !f.Type.IsValid() {
		return fmt.Errorf("%w: template %q: field %q: invalid type %q", ErrInvalid, templateName, f.Name, f.Type)
	}

	selectable := f.Type == FieldTypeSelect || f.Type == FieldTypeMultiSelect
	if selectable && len(f.Options) == 0 {
		return fmt.Errorf("%w: template %q: field %q: select fields require options", ErrInvalid, templateName, f.Name)
	}
	if !selectable && len(f.Options) > 0 {
		return fmt.Errorf("%w: template %q: field %q: options are only valid on select fields", ErrInvalid, templateName, f.Name)
	}

	for _, opt := range f.Options {
		if opt.Value == "" {
			return fmt.Errorf("%w: template %q: field %q: option with empty value", ErrInvalid, templateName, f.Name)
		}
	}

	// A default on a select field must name one of its options.
	if f.Default != "" && f.Type == FieldTypeSelect {
		found := false
		for _, opt := range f.Options {
			if opt.Value == f.Default {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: template %q: field %q: default %q is not an option", ErrInvalid, templateName, f.Name, f.Default)
		}
	}

	return nil
}
