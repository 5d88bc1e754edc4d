package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// accountCmd builds the student or faculty command group.
func (c *cli) accountCmd(role string) *cobra.Command {
	group := &cobra.Command{
		Use:   role,
		Short: fmt.Sprintf("Manage %s accounts", role),
	}

	var password string
	add := &cobra.Command{
		Use:   "add ID NAME",
		Short: fmt.Sprintf("Add a %s account", role),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if role == "faculty" {
				f, err := c.service.Accounts.AddFaculty(ctx, args[0], args[1], password)
				if err != nil {
					return err
				}
				return printJSON(cmd, f)
			}
			s, err := c.service.Accounts.AddStudent(ctx, args[0], args[1], password)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
	add.Flags().StringVarP(&password, "password", "p", "", "initial password")
	_ = add.MarkFlagRequired("password")

	var name, newPassword string
	update := &cobra.Command{
		Use:   "update ID",
		Short: fmt.Sprintf("Change the name or password of a %s", role),
		Long:  "Flags left empty keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if role == "faculty" {
				f, err := c.service.Accounts.UpdateFaculty(ctx, args[0], name, newPassword)
				if err != nil {
					return err
				}
				return printJSON(cmd, f)
			}
			s, err := c.service.Accounts.UpdateStudent(ctx, args[0], name, newPassword)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
	update.Flags().StringVar(&name, "name", "", "new name")
	update.Flags().StringVar(&newPassword, "password", "", "new password")

	show := &cobra.Command{
		Use:   "show ID",
		Short: fmt.Sprintf("Show a %s", role),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role == "faculty" {
				f, err := c.service.Accounts.GetFaculty(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, f)
			}
			s, err := c.service.Accounts.GetStudent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s accounts", role),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role == "faculty" {
				f, err := c.service.Accounts.ListFaculty(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, f)
			}
			s, err := c.service.Accounts.ListStudents(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}

	group.AddCommand(add, update, show, list)
	return group
}
