package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/workbench/pkg/store"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample workspace into an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := store.Seed(cmd.Context(), s)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "store already has tasks; nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tasks\n", n)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every task with its children as JSON lines",
		Long:  "Export writes one task per line, including subtasks, comments and requirements.\nWithout a file argument the export goes to standard output.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 0 {
				_, err := store.Export(cmd.Context(), s, cmd.OutOrStdout())
				return err
			}
			n, err := store.ExportFile(cmd.Context(), s, args[0])
			if err != nil {
				return sysError{err}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d tasks to %s\n", n, args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Recreate tasks from an export file",
		Long:  "Import adds every task in the file as a new task. Ids are reassigned.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := store.ImportFile(cmd.Context(), s, args[0])
			if err != nil {
				return fmt.Errorf("import %s after %d tasks: %w", args[0], n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", n)
			return nil
		},
	}
}
