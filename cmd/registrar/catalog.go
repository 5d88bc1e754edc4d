package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

func (c *cli) courseCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "course",
		Short: "Manage courses",
	}

	var (
		name     string
		credits  int
		faculty  []string
		capacity int
	)
	create := &cobra.Command{
		Use:   "create ID",
		Short: "Create a course or attach offerings to an existing one",
		Long: `Create a course and one offering per --faculty member.

If the course already exists, --name and --credits are ignored and new
offerings are attached to it. Faculty already teaching the course are skipped.

Examples:
  registrar course create CS101 --name "Intro to CS" --credits 3 -f F1 -f F2 --capacity 30
  registrar course create CS101 -f F3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course := models.Course{ID: args[0], Name: name, Credits: credits}
			result, err := c.service.Catalog.CreateOfferings(cmd.Context(), course, faculty, capacity)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	create.Flags().StringVar(&name, "name", "", "course name")
	create.Flags().IntVar(&credits, "credits", models.DefaultCredits, "course credits")
	create.Flags().StringArrayVarP(&faculty, "faculty", "f", nil, "faculty id teaching an offering (repeatable)")
	create.Flags().IntVar(&capacity, "capacity", 0, "seats per offering, 0 for unlimited")

	var newName string
	var newCredits int
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Rename a course or change its credits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			course, err := c.service.Catalog.UpdateCourse(cmd.Context(), args[0], newName, newCredits)
			if err != nil {
				return err
			}
			return printJSON(cmd, course)
		},
	}
	update.Flags().StringVar(&newName, "name", "", "new name, empty keeps the current one")
	update.Flags().IntVar(&newCredits, "credits", 0, "new credits, 0 keeps the current value")

	list := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := c.service.Catalog.ListCourses(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, courses)
		},
	}

	group.AddCommand(create, update, list)
	return group
}

func (c *cli) offeringCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "offering",
		Short: "Inspect and manage offerings",
	}

	var filter models.OfferingFilter
	seats := &cobra.Command{
		Use:   "seats [ID]",
		Short: "Show remaining seats of one or all offerings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				s, err := c.service.Views.Seats(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, s)
			}
			all, err := c.service.Views.AllSeats(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd, all)
		},
	}
	seats.Flags().StringVar(&filter.CourseID, "course", "", "only offerings of this course")
	seats.Flags().StringVar(&filter.FacultyID, "faculty", "", "only offerings taught by this faculty")

	roster := &cobra.Command{
		Use:   "roster ID",
		Short: "List students enrolled in an offering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.service.Views.Roster(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}

	capacity := &cobra.Command{
		Use:   "capacity ID SEATS",
		Short: "Change the capacity of an offering, 0 for unlimited",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seats, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			o, err := c.service.Catalog.SetCapacity(cmd.Context(), args[0], seats)
			if err != nil {
				return err
			}
			return printJSON(cmd, o)
		},
	}

	reassign := &cobra.Command{
		Use:   "reassign ID FACULTY",
		Short: "Hand an offering to another faculty member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.service.Engine.ReassignFaculty(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	remove := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an offering together with its enrollments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.service.Engine.DeleteOffering(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}

	group.AddCommand(seats, roster, capacity, reassign, remove)
	return group
}
