package schema

import "testing"

func TestConfigSnapshotValidator(t *testing.T) {
	v, err := NewConfigSnapshotValidator()
	if err != nil {
		t.Fatalf("NewConfigSnapshotValidator: %v", err)
	}

	valid := []byte(`{
		"horario_trabajo": {"inicio": "08:00", "fin": "18:00", "dias_laborales": ["Lun", "Mar"]},
		"recursos": {"num_maquinas": 2, "num_operadores": 1},
		"parametros_optimizacion": {"tiempo_maximo_resolucion": 30, "objetivo": "MINIMIZE_MAKESPAN"}
	}`)
	result, err := v.ValidateBytes(valid)
	if err != nil {
		t.Fatalf("ValidateBytes: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid config snapshot, got errors: %v", result.Errors)
	}

	invalid := []byte(`{"horario_trabajo": {}, "recursos": {}}`)
	result, err = v.ValidateBytes(invalid)
	if err != nil {
		t.Fatalf("ValidateBytes: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid result for missing required fields")
	}
}

func TestTaskCatalogValidator(t *testing.T) {
	v, err := NewTaskCatalogValidator()
	if err != nil {
		t.Fatalf("NewTaskCatalogValidator: %v", err)
	}

	doc := map[string]interface{}{
		"machines":  []interface{}{map[string]interface{}{"id": "M1"}},
		"operators": []interface{}{map[string]interface{}{"id": "O1"}},
		"jobs": []interface{}{map[string]interface{}{
			"id": "J1",
			"tasks": []interface{}{map[string]interface{}{
				"id": "T1", "duration_min": 30,
			}},
		}},
	}
	if err := v.Validate(doc); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	missing := map[string]interface{}{"machines": []interface{}{}}
	if err := v.Validate(missing); err == nil {
		t.Fatalf("expected validation error for missing required fields")
	}
}

func TestLegacyCatalogMigration(t *testing.T) {
	m := NewMigrator()
	legacy := map[string]interface{}{
		"maquinas":   []interface{}{map[string]interface{}{"id": "M1"}},
		"operadores": []interface{}{map[string]interface{}{"id": "O1"}},
		"trabajos":   []interface{}{},
	}

	migrated, err := m.MigrateData(legacy, SchemaVersion{Major: 1, Minor: 0, Patch: 0})
	if err != nil {
		t.Fatalf("MigrateData: %v", err)
	}
	if _, ok := migrated["machines"]; !ok {
		t.Fatalf("expected machines key after migration, got %v", migrated)
	}
	if _, ok := migrated["maquinas"]; ok {
		t.Fatalf("expected legacy maquinas key removed")
	}
	if migrated["schema_version"] != "1.0.0" {
		t.Fatalf("schema_version = %v, want 1.0.0", migrated["schema_version"])
	}
}
