package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shrimpsizemoose/coursereg/internal/export"
)

type enrollmentOutput struct {
	EnrollmentID string `json:"enrollment_id"`
}

func (c *cli) enrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enroll STUDENT OFFERING",
		Short: "Enroll a student in an offering",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.service.Engine.Enroll(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, enrollmentOutput{EnrollmentID: id})
		},
	}
}

func (c *cli) dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop STUDENT OFFERING",
		Short: "Drop a student from an offering",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.service.Engine.Drop(cmd.Context(), args[0], args[1])
		},
	}
}

func (c *cli) swapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swap STUDENT OLD NEW",
		Short: "Move a student between offerings in one step",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.service.Engine.Swap(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return printJSON(cmd, enrollmentOutput{EnrollmentID: id})
		},
	}
}

func (c *cli) scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule STUDENT",
		Short: "Show the offerings a student is enrolled in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.service.Views.Schedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
}

func (c *cli) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load FACULTY",
		Short: "Show the offerings a faculty member teaches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.service.Views.FacultyLoad(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, l)
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Remove every enrollment and reset all counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear all enrollments without --yes")
			}
			report, err := c.service.Engine.ClearAllEnrollments(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing every enrollment")
	return cmd
}

func (c *cli) driftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drift",
		Short: "List offerings whose cached count disagrees with the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.service.Views.Drift(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}
}

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Rewrite every cached count from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.service.Engine.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}
}

type sequenceOutput struct {
	Value int64  `json:"value"`
	Next  string `json:"next_id"`
}

func (c *cli) sequenceCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect or advance the class id counter",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the last counter value handed out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.service.CurrentSequence(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, sequenceOutput{Value: v, Next: c.service.IDs.Format(v + 1)})
		},
	}

	set := &cobra.Command{
		Use:   "set VALUE",
		Short: "Move the counter forward, the next id gets VALUE+1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			if err := c.service.SetSequence(cmd.Context(), v); err != nil {
				return err
			}
			return printJSON(cmd, sequenceOutput{Value: v, Next: c.service.IDs.Format(v + 1)})
		},
	}

	group.AddCommand(show, set)
	return group
}

type exportOutput struct {
	Path string `json:"path"`
}

func (c *cli) exportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a workbook snapshot now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = c.service.Config.Export.Dir
			}
			path, err := export.NewWorkbookExporter(dir, c.service.Store).Export(cmd.Context())
			if err != nil {
				return err
			}
			abs, _ := filepath.Abs(path)
			return printJSON(cmd, exportOutput{Path: abs})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from config)")
	return cmd
}
