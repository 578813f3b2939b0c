package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/prodsched/prodsched/pkg/domain"
	"github.com/prodsched/prodsched/pkg/schema"
	"github.com/prodsched/prodsched/pkg/store"
)

var flagCatalogFile string

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the machine and operator catalog",
	}
	cmd.PersistentFlags().StringVar(&flagCatalogFile, "catalog-file", "", "JSON catalog file to read/write machines and operators from (in-process catalog when unset)")

	cmd.AddCommand(newCatalogImportCmd())
	cmd.AddCommand(newCatalogExportCmd())
	cmd.AddCommand(newCatalogMachineCmd())
	cmd.AddCommand(newCatalogOperatorCmd())
	return cmd
}

// catalogStore returns the CatalogStore to operate on for this invocation:
// a fresh MemoryCatalogStore loaded from --catalog-file if given, else the
// process-wide singleton.
func catalogStore(ctx context.Context) (store.CatalogStore, error) {
	if flagCatalogFile == "" {
		return memoryCatalogSingleton, nil
	}
	cs := store.NewMemoryCatalogStore()
	var doc catalogDoc
	if err := loadJSON(flagCatalogFile, &doc); err != nil {
		return nil, err
	}
	for _, md := range doc.Machines {
		if err := cs.UpsertMachine(ctx, machineFromDTO(md)); err != nil {
			return nil, err
		}
	}
	for _, od := range doc.Operators {
		if err := cs.UpsertOperator(ctx, operatorFromDTO(od)); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

// persistCatalog writes cs back to --catalog-file, a no-op when the
// in-process catalog is in use.
func persistCatalog(ctx context.Context, cs store.CatalogStore) error {
	if flagCatalogFile == "" {
		return nil
	}
	machines, err := cs.ListMachines(ctx)
	if err != nil {
		return err
	}
	operators, err := cs.ListOperators(ctx)
	if err != nil {
		return err
	}
	doc := catalogDoc{SchemaVersion: "1.0.0"}
	for _, m := range machines {
		doc.Machines = append(doc.Machines, machineToDTO(m))
	}
	for _, o := range operators {
		doc.Operators = append(doc.Operators, operatorToDTO(o))
	}
	return writeJSON(flagCatalogFile, doc)
}

func newCatalogMachineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Create and list machines",
	}

	var id, name string
	var setupMin int
	var costHour float64
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create or update a machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cs, err := catalogStore(ctx)
			if err != nil {
				return err
			}
			m := &domain.Machine{ID: id, Name: name, DefaultSetup: setupMin, CostPerHour: costHour}
			if err := cs.UpsertMachine(ctx, m); err != nil {
				return err
			}
			if err := persistCatalog(ctx, cs); err != nil {
				return err
			}
			fmt.Printf("machine %s saved\n", id)
			return nil
		},
	}
	addCmd.Flags().StringVar(&id, "id", "", "machine id (required)")
	addCmd.Flags().StringVar(&name, "name", "", "display name")
	addCmd.Flags().IntVar(&setupMin, "default-setup", 0, "default setup minutes")
	addCmd.Flags().Float64Var(&costHour, "cost-hour", 0, "cost per hour")
	_ = addCmd.MarkFlagRequired("id")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List machines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cs, err := catalogStore(ctx)
			if err != nil {
				return err
			}
			machines, err := cs.ListMachines(ctx)
			if err != nil {
				return err
			}
			sort.Slice(machines, func(i, j int) bool { return machines[i].ID < machines[j].ID })
			for _, m := range machines {
				fmt.Printf("%-12s %-20s setup=%-4d cost/hr=%.2f\n", m.ID, m.Name, m.DefaultSetup, m.CostPerHour)
			}
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}

func newCatalogOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Create and list operators",
	}

	var id, name string
	var qualified []string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create or update an operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cs, err := catalogStore(ctx)
			if err != nil {
				return err
			}
			o := domain.NewOperator(id, name, qualified)
			if err := cs.UpsertOperator(ctx, o); err != nil {
				return err
			}
			if err := persistCatalog(ctx, cs); err != nil {
				return err
			}
			fmt.Printf("operator %s saved\n", id)
			return nil
		},
	}
	addCmd.Flags().StringVar(&id, "id", "", "operator id (required)")
	addCmd.Flags().StringVar(&name, "name", "", "display name")
	addCmd.Flags().StringSliceVar(&qualified, "qualified", nil, "comma-separated list of machine ids this operator may run")
	_ = addCmd.MarkFlagRequired("id")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List operators",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cs, err := catalogStore(ctx)
			if err != nil {
				return err
			}
			operators, err := cs.ListOperators(ctx)
			if err != nil {
				return err
			}
			sort.Slice(operators, func(i, j int) bool { return operators[i].ID < operators[j].ID })
			for _, o := range operators {
				dto := operatorToDTO(o)
				sort.Strings(dto.QualifiedMachines)
				fmt.Printf("%-12s %-20s qualified=%v\n", o.ID, o.Name, dto.QualifiedMachines)
			}
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	var jobsOut string
	cmd := &cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Validate and import a machine/operator/job catalog document",
		Long: `Validates the document against the catalog schema (migrating it first if
it still uses the legacy maquinas/operadores/trabajos keys), loads its
machines and operators into the catalog, and writes its jobs out to
--jobs-out for later use by "prodsched schedule solve --jobs".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw, err := rawJSONDoc(args[0])
			if err != nil {
				return err
			}

			migrator := schema.NewMigrator()
			target := schema.SchemaVersion{Major: 1, Minor: 0, Patch: 0}
			migrated, err := migrator.MigrateData(raw, target)
			if err != nil {
				return fmt.Errorf("migrate catalog document: %w", err)
			}

			validator, err := schema.NewTaskCatalogValidator()
			if err != nil {
				return err
			}
			if err := validator.Validate(migrated); err != nil {
				return err
			}

			var doc catalogDoc
			if err := remarshalInto(migrated, &doc); err != nil {
				return err
			}

			cs, err := catalogStore(ctx)
			if err != nil {
				return err
			}
			for _, md := range doc.Machines {
				if err := cs.UpsertMachine(ctx, machineFromDTO(md)); err != nil {
					return err
				}
			}
			for _, od := range doc.Operators {
				if err := cs.UpsertOperator(ctx, operatorFromDTO(od)); err != nil {
					return err
				}
			}
			if err := persistCatalog(ctx, cs); err != nil {
				return err
			}

			var jobs []*domain.Job
			for _, jd := range doc.Jobs {
				job, err := jobFromDTO(jd)
				if err != nil {
					return err
				}
				jobs = append(jobs, job)
			}
			if jobsOut != "" {
				jobDocs := make([]jobDTO, 0, len(jobs))
				for _, j := range jobs {
					jobDocs = append(jobDocs, jobToDTO(j))
				}
				if err := writeJSON(jobsOut, jobDocs); err != nil {
					return err
				}
			}

			fmt.Printf("imported %d machines, %d operators, %d jobs\n", len(doc.Machines), len(doc.Operators), len(jobs))
			return nil
		},
	}
	cmd.Flags().StringVar(&jobsOut, "jobs-out", "", "path to write the imported jobs as JSON for schedule solve")
	return cmd
}

func newCatalogExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <out.json>",
		Short: "Export the current catalog's machines and operators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cs, err := catalogStore(ctx)
			if err != nil {
				return err
			}
			machines, err := cs.ListMachines(ctx)
			if err != nil {
				return err
			}
			operators, err := cs.ListOperators(ctx)
			if err != nil {
				return err
			}
			doc := catalogDoc{SchemaVersion: "1.0.0"}
			for _, m := range machines {
				doc.Machines = append(doc.Machines, machineToDTO(m))
			}
			for _, o := range operators {
				doc.Operators = append(doc.Operators, operatorToDTO(o))
			}
			return writeJSON(args[0], doc)
		},
	}
	return cmd
}
