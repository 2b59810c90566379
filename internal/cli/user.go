package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var password string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := types.NewUser{Username: args[0], Password: password}
			if err := in.Validate(); err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := s.CreateUser(cmd.Context(), in)
			if errors.Is(err, types.ErrDuplicate) {
				return fmt.Errorf("username %q is taken", in.Username)
			}
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d\n", u.ID)
			return nil
		},
	}
	add.Flags().StringVar(&password, "password", "", "account password")

	show := &cobra.Command{
		Use:   "show <username>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := s.GetUserByUsername(cmd.Context(), args[0])
			if errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("user %q not found", args[0])
			}
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", u.ID, u.Username)
			return nil
		},
	}

	cmd.AddCommand(add, show)
	return cmd
}
