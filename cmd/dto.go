package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prodsched/prodsched/pkg/domain"
)

// catalogDoc is the on-disk shape `catalog import`/`catalog export` read and
// write: machines, operators and the jobs they run, in the same field names
// the legacy catalog schema validates.
type catalogDoc struct {
	SchemaVersion string        `json:"schema_version,omitempty"`
	Machines      []machineDTO  `json:"machines"`
	Operators     []operatorDTO `json:"operators"`
	Jobs          []jobDTO      `json:"jobs"`
}

type machineDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	SetupMin int     `json:"setup_min"`
	CostHour float64 `json:"cost_hour"`
}

type operatorDTO struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name,omitempty"`
	QualifiedMachines  []string `json:"qualified_machines"`
}

type jobDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Tasks       []taskDTO `json:"tasks"`
}

type taskDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	DurationMin int             `json:"duration_min"`
	SetupMin    int             `json:"setup_min"`
	Orden       int             `json:"orden,omitempty"`
	MachineSpec json.RawMessage `json:"machine_spec,omitempty"`
}

// rawJSONDoc reads path into a generic map, the shape pkg/schema's
// validator and migrator operate on.
func rawJSONDoc(path string) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := loadJSON(path, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// remarshalInto round-trips a generic document through JSON into a typed
// destination, used after schema migration hands back a map.
func remarshalInto(doc map[string]interface{}, dest interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("re-encode document: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func machineFromDTO(d machineDTO) *domain.Machine {
	return &domain.Machine{
		ID:           d.ID,
		Name:         d.Name,
		DefaultSetup: d.SetupMin,
		CostPerHour:  d.CostHour,
	}
}

func machineToDTO(m *domain.Machine) machineDTO {
	return machineDTO{ID: m.ID, Name: m.Name, SetupMin: m.DefaultSetup, CostHour: m.CostPerHour}
}

func operatorFromDTO(d operatorDTO) *domain.Operator {
	return domain.NewOperator(d.ID, d.Name, d.QualifiedMachines)
}

func operatorToDTO(o *domain.Operator) operatorDTO {
	ids := make([]string, 0, len(o.QualifiedMachineIDs))
	for id := range o.QualifiedMachineIDs {
		ids = append(ids, id)
	}
	return operatorDTO{ID: o.ID, Name: o.Name, QualifiedMachines: ids}
}

// jobFromDTO converts a jobDTO into a domain.Job with validated templates.
func jobFromDTO(d jobDTO) (*domain.Job, error) {
	job := &domain.Job{ID: d.ID, Name: d.Name, Description: d.Description}
	for _, td := range d.Tasks {
		spec, err := machineSpecFromRaw(td.MachineSpec)
		if err != nil {
			return nil, fmt.Errorf("job %s task %s: %w", d.ID, td.ID, err)
		}
		job.Tasks = append(job.Tasks, &domain.TaskTemplate{
			ID:          td.ID,
			JobID:       d.ID,
			Name:        td.Name,
			DurationMin: td.DurationMin,
			SetupMin:    td.SetupMin,
			MachineSpec: spec,
			Orden:       td.Orden,
		})
	}
	if err := domain.ValidateJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// machineSpecFromRaw interprets machine_spec per the catalog document
// convention: a JSON string "*" or "" is the wildcard, any other string pins a
// single machine id, and a JSON array of strings is the alternatives set.
// An absent or null field also means the wildcard.
func machineSpecFromRaw(raw json.RawMessage) (domain.MachineSpec, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.AnyMachine(), nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "*" || asString == "" {
			return domain.AnyMachine(), nil
		}
		return domain.SingleMachine(asString), nil
	}
	var asSlice []string
	if err := json.Unmarshal(raw, &asSlice); err == nil {
		return domain.AlternativeMachines(asSlice...), nil
	}
	return domain.MachineSpec{}, fmt.Errorf("machine_spec must be a string or an array of strings")
}

func machineSpecToRaw(spec domain.MachineSpec) json.RawMessage {
	switch spec.Kind {
	case domain.MachineSpecSingle:
		raw, _ := json.Marshal(spec.Ids[0])
		return raw
	case domain.MachineSpecAlternatives:
		raw, _ := json.Marshal(spec.Ids)
		return raw
	default:
		raw, _ := json.Marshal("*")
		return raw
	}
}

func jobToDTO(job *domain.Job) jobDTO {
	d := jobDTO{ID: job.ID, Name: job.Name, Description: job.Description}
	for _, t := range job.Tasks {
		d.Tasks = append(d.Tasks, taskDTO{
			ID:          t.ID,
			Name:        t.Name,
			DurationMin: t.DurationMin,
			SetupMin:    t.SetupMin,
			Orden:       t.Orden,
			MachineSpec: machineSpecToRaw(t.MachineSpec),
		})
	}
	return d
}
