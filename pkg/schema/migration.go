package schema

import "fmt"

// Migration upgrades a document from one schema version to another.
type Migration interface {
	GetSourceVersion() SchemaVersion
	GetTargetVersion() SchemaVersion
	Migrate(data map[string]interface{}) (map[string]interface{}, error)
	GetDescription() string
}

// MigrationRegistry holds the set of available migrations, keyed by
// "source->target".
type MigrationRegistry struct {
	migrations map[string]Migration
}

// NewMigrationRegistry returns a registry pre-populated with this
// module's built-in migrations.
func NewMigrationRegistry() *MigrationRegistry {
	r := &MigrationRegistry{migrations: make(map[string]Migration)}
	_ = r.RegisterMigration(&LegacyCatalogMigration{})
	return r
}

func (r *MigrationRegistry) RegisterMigration(m Migration) error {
	key := fmt.Sprintf("%s->%s", m.GetSourceVersion(), m.GetTargetVersion())
	if _, exists := r.migrations[key]; exists {
		return fmt.Errorf("migration %s already registered", key)
	}
	r.migrations[key] = m
	return nil
}

func (r *MigrationRegistry) GetMigration(from, to SchemaVersion) (Migration, error) {
	key := fmt.Sprintf("%s->%s", from, to)
	m, ok := r.migrations[key]
	if !ok {
		return nil, fmt.Errorf("no migration available from %s to %s", from, to)
	}
	return m, nil
}

// GetMigrationPath returns the migration chain from source to target.
// Only direct (single-hop) migrations are supported; multi-step
// pathfinding has no concrete use case here (this module has carried
// exactly one document-shape upgrade since its origin).
func (r *MigrationRegistry) GetMigrationPath(from, to SchemaVersion) ([]Migration, error) {
	m, err := r.GetMigration(from, to)
	if err != nil {
		return nil, err
	}
	return []Migration{m}, nil
}

// Migrator applies a migration path to data read from/written to the
// caller (CLI commands own the file I/O; this package stays in-memory).
type Migrator struct {
	registry *MigrationRegistry
}

func NewMigrator() *Migrator { return &Migrator{registry: NewMigrationRegistry()} }

func NewMigratorWithRegistry(r *MigrationRegistry) *Migrator { return &Migrator{registry: r} }

// MigrateData upgrades data to targetVersion, detecting its current
// version from a schema_version field (defaulting to 0.9.0 for documents
// predating that field, the legacy catalog's version).
func (m *Migrator) MigrateData(data map[string]interface{}, targetVersion SchemaVersion) (map[string]interface{}, error) {
	current := m.extractVersion(data)
	if current.String() == targetVersion.String() {
		return data, nil
	}

	migrations, err := m.registry.GetMigrationPath(current, targetVersion)
	if err != nil {
		return nil, fmt.Errorf("find migration path: %w", err)
	}

	result := data
	for _, mig := range migrations {
		result, err = mig.Migrate(result)
		if err != nil {
			return nil, fmt.Errorf("migration failed (%s): %w", mig.GetDescription(), err)
		}
	}
	return result, nil
}

func (m *Migrator) extractVersion(data map[string]interface{}) SchemaVersion {
	if vs, ok := data["schema_version"].(string); ok {
		if v, err := ParseVersion(vs); err == nil {
			return v
		}
	}
	return SchemaVersion{Major: 0, Minor: 9, Patch: 0}
}

// LegacyCatalogMigration upgrades the pre-ConfigSnapshot flat catalog
// shape (a bare "maquinas"/"operadores"/"trabajos" document) to the
// current English-keyed "machines"/"operators"/"jobs" shape
// NewTaskCatalogValidator expects.
type LegacyCatalogMigration struct{}

func (LegacyCatalogMigration) GetSourceVersion() SchemaVersion {
	return SchemaVersion{Major: 0, Minor: 9, Patch: 0}
}

func (LegacyCatalogMigration) GetTargetVersion() SchemaVersion {
	return SchemaVersion{Major: 1, Minor: 0, Patch: 0}
}

func (LegacyCatalogMigration) GetDescription() string {
	return "rename legacy maquinas/operadores/trabajos catalog keys to machines/operators/jobs"
}

func (LegacyCatalogMigration) Migrate(data map[string]interface{}) (map[string]interface{}, error) {
	rename := map[string]string{
		"maquinas":   "machines",
		"operadores": "operators",
		"trabajos":   "jobs",
	}
	out := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		if newKey, ok := rename[k]; ok {
			out[newKey] = v
			continue
		}
		out[k] = v
	}
	out["schema_version"] = "1.0.0"
	return out, nil
}
