package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// ErrEmptyDocument is returned by Decode for blank input.
var ErrEmptyDocument = errors.New("document: payload is empty")

// Decode parses a template payload. JSON is tried first (comments and
// trailing commas are tolerated), then YAML.
func Decode(data []byte) (any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyDocument
	}

	var doc any
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err == nil {
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	return nil, fmt.Errorf("document: parse: invalid JSON or YAML")
}

// Load decodes data and normalizes the result.
func Load(data []byte) (template.Template, error) {
	raw, err := Decode(data)
	if err != nil {
		return template.Template{}, err
	}
	return Normalize(raw), nil
}
