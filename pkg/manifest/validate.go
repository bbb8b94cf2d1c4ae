package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/lincza/albuild/pkg/errors"
)

// appSchema is the subset of the app.json contract the toolkit relies on.
// The AL tooling accepts looser documents; anything failing here fails the
// compiler too, just later and with a worse message.
const appSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name", "publisher", "version"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "publisher": {"type": "string", "minLength": 1},
    "version": {
      "type": "string",
      "pattern": "^[0-9]+\\.[0-9]+\\.[0-9]+\\.[0-9]+$"
    },
    "application": {"type": "string"},
    "platform": {"type": "string"},
    "runtime": {"type": "string"},
    "target": {"type": "string"},
    "idRanges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["from", "to"],
        "properties": {
          "from": {"type": "integer", "minimum": 1},
          "to": {"type": "integer", "minimum": 1}
        }
      }
    },
    "dependencies": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "publisher"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "publisher": {"type": "string", "minLength": 1},
          "version": {"type": "string"}
        }
      }
    }
  }
}`

// Validate checks the raw manifest document against the embedded schema and
// verifies that the app ID and every dependency ID are well-formed UUIDs.
// All problems are reported at once, wrapped in ErrManifestInvalid.
func Validate(data []byte) error {
	schema := gojsonschema.NewStringLoader(appSchema)
	document := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return errors.Wrapf(errors.ErrManifestInvalid, "schema validation failed: %v", err)
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}

	if result.Valid() {
		problems = append(problems, uuidProblems(data)...)
	}

	if len(problems) > 0 {
		return errors.Wrapf(errors.ErrManifestInvalid, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// uuidProblems checks the identifier fields the schema can only see as
// strings. Runs after structural validation so unmarshalling cannot fail.
func uuidProblems(data []byte) []string {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return []string{err.Error()}
	}

	var problems []string
	if _, err := uuid.Parse(m.ID); err != nil {
		problems = append(problems, fmt.Sprintf("id %q is not a valid UUID", m.ID))
	}
	for _, dep := range m.Dependencies {
		if _, err := uuid.Parse(dep.ID); err != nil {
			problems = append(problems, fmt.Sprintf("dependency %s: id %q is not a valid UUID", dep.Label(), dep.ID))
		}
	}
	return problems
}
