// Package schema validates the JSON documents that cross this module's
// boundary — the weekly ConfigSnapshot and the legacy machine/operator/
// task catalog import — against versioned JSON Schemas before they reach
// the scheduling engine or the lifecycle manager, using the same
// SchemaVersion/Validator/migration-registry machinery a versioned
// result-document validator would, retargeted at these two document
// shapes.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/prodsched/prodsched/pkg/apperr"
)

// SchemaVersion is a semantic version used to tag a document shape.
type SchemaVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion parses a "major.minor.patch" string.
func ParseVersion(version string) (SchemaVersion, error) {
	var v SchemaVersion
	n, err := fmt.Sscanf(version, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil || n != 3 {
		return v, fmt.Errorf("invalid version format: %s", version)
	}
	return v, nil
}

// IsCompatible reports whether v can read a document declared at
// required's version: same major, and v's minor.patch is >= required's.
func (v SchemaVersion) IsCompatible(required SchemaVersion) bool {
	if v.Major != required.Major {
		return false
	}
	if v.Minor != required.Minor {
		return v.Minor > required.Minor
	}
	return v.Patch >= required.Patch
}

// configSnapshotSchemaV1 validates the weekly ConfigSnapshot document:
// horario_trabajo, recursos, parametros_optimizacion.
const configSnapshotSchemaV1 = `{
  "schema_version": "1.0.0",
  "type": "object",
  "required": ["horario_trabajo", "recursos", "parametros_optimizacion"],
  "properties": {
    "horario_trabajo": {
      "type": "object",
      "required": ["inicio", "fin", "dias_laborales"],
      "properties": {
        "inicio": {"type": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]$"},
        "fin": {"type": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]$"},
        "dias_laborales": {"type": "array", "minItems": 1, "items": {"type": "string"}},
        "descanso_almuerzo": {
          "type": "object",
          "properties": {
            "inicio": {"type": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]$"},
            "fin": {"type": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]$"}
          }
        }
      }
    },
    "recursos": {
      "type": "object",
      "required": ["num_maquinas", "num_operadores"],
      "properties": {
        "num_maquinas": {"type": "integer", "minimum": 1},
        "num_operadores": {"type": "integer", "minimum": 1}
      }
    },
    "parametros_optimizacion": {
      "type": "object",
      "required": ["tiempo_maximo_resolucion", "objetivo"],
      "properties": {
        "tiempo_maximo_resolucion": {"type": "integer", "minimum": 1},
        "objetivo": {"enum": ["MINIMIZE_MAKESPAN", "MAXIMIZE_UTILIZATION", "MINIMIZE_COST_PROXY", "BALANCED"]},
        "restricciones": {
          "type": "object",
          "properties": {
            "considerar_setup": {"type": "boolean"}
          }
        }
      }
    }
  }
}`

// taskCatalogSchemaV1 validates the legacy flat job/task/machine/operator
// catalog import document.
const taskCatalogSchemaV1 = `{
  "schema_version": "1.0.0",
  "type": "object",
  "required": ["machines", "operators", "jobs"],
  "properties": {
    "machines": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string"},
          "setup_min": {"type": "integer", "minimum": 0},
          "cost_hour": {"type": "number", "minimum": 0}
        }
      }
    },
    "operators": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string"},
          "qualified_machines": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "jobs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "tasks"],
        "properties": {
          "id": {"type": "string"},
          "tasks": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "duration_min"],
              "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "duration_min": {"type": "integer", "exclusiveMinimum": 0},
                "setup_min": {"type": "integer", "minimum": 0},
                "orden": {"type": "integer"},
                "machine_spec": {}
              }
            }
          }
        }
      }
    }
  }
}`

// ValidationResult reports the outcome of validating a document.
type ValidationResult struct {
	Valid         bool
	Errors        []string
	Warnings      []string
	SchemaVersion SchemaVersion
	DataVersion   SchemaVersion
}

func (r *ValidationResult) HasErrors() bool   { return len(r.Errors) > 0 }
func (r *ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

func (r *ValidationResult) String() string {
	var sb strings.Builder
	if r.Valid {
		sb.WriteString("validation passed")
	} else {
		sb.WriteString("validation failed")
	}
	fmt.Fprintf(&sb, " (schema %s, data %s)", r.SchemaVersion, r.DataVersion)
	for _, e := range r.Errors {
		fmt.Fprintf(&sb, "\n  - %s", e)
	}
	return sb.String()
}

// Validator compiles one JSON Schema document and validates bytes against
// it, tracking the document's own declared schema_version alongside the
// schema's.
type Validator struct {
	version SchemaVersion
	schema  *gojsonschema.Schema
}

func newValidatorFromSource(schemaJSON string) (*Validator, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("parse embedded schema: %w", err)
	}
	version := SchemaVersion{Major: 1, Minor: 0, Patch: 0}
	if vs, ok := doc["schema_version"].(string); ok {
		if v, err := ParseVersion(vs); err == nil {
			version = v
		}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	return &Validator{version: version, schema: schema}, nil
}

// NewConfigSnapshotValidator returns the validator for weekly
// ConfigSnapshot documents.
func NewConfigSnapshotValidator() (*Validator, error) {
	return newValidatorFromSource(configSnapshotSchemaV1)
}

// NewTaskCatalogValidator returns the validator for the legacy catalog
// import document.
func NewTaskCatalogValidator() (*Validator, error) {
	return newValidatorFromSource(taskCatalogSchemaV1)
}

// GetVersion returns the schema's own version.
func (v *Validator) GetVersion() SchemaVersion { return v.version }

// ValidateBytes validates a JSON document against v's compiled schema.
func (v *Validator) ValidateBytes(data []byte) (*ValidationResult, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("invalid JSON: %v", err)}}, nil
	}

	dataVersion := SchemaVersion{Major: 1, Minor: 0, Patch: 0}
	if vs, ok := doc["schema_version"].(string); ok {
		parsed, err := ParseVersion(vs)
		if err != nil {
			return &ValidationResult{Valid: false, Errors: []string{fmt.Sprintf("invalid schema_version: %v", err)}}, nil
		}
		dataVersion = parsed
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var errs, warnings []string
	if !result.Valid() {
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
	}
	if !v.version.IsCompatible(dataVersion) {
		warnings = append(warnings, fmt.Sprintf("schema version mismatch: validator %s, data %s", v.version, dataVersion))
	}

	return &ValidationResult{
		Valid:         result.Valid(),
		Errors:        errs,
		Warnings:      warnings,
		SchemaVersion: v.version,
		DataVersion:   dataVersion,
	}, nil
}

// Validate marshals doc and validates it, returning an apperr.InvalidInput
// on schema violation so malformed configuration and catalog documents
// surface through the module's standard error taxonomy.
func (v *Validator) Validate(doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "marshal document for validation")
	}
	result, err := v.ValidateBytes(data)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "run schema validation")
	}
	if !result.Valid {
		return apperr.New(apperr.InvalidInput, "schema validation failed: %s", strings.Join(result.Errors, "; "))
	}
	return nil
}
