package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shrimpsizemoose/coursereg/internal/app"
)

// cli carries the service opened for the running command.
type cli struct {
	cfgFile string
	service *app.Service
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "registrar",
		Short: "Administer course registration",
		Long: `Administer students, faculty, courses, offerings and enrollments
against the store configured in config.toml.

Every command prints its result as JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			service, err := app.NewLocalService(c.cfgFile)
			if err != nil {
				return err
			}
			c.service = service
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.service == nil {
				return nil
			}
			return c.service.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "config.toml", "config file")

	rootCmd.AddCommand(
		c.accountCmd("student"),
		c.accountCmd("faculty"),
		c.courseCmd(),
		c.offeringCmd(),
		c.enrollCmd(),
		c.dropCmd(),
		c.swapCmd(),
		c.scheduleCmd(),
		c.loadCmd(),
		c.clearCmd(),
		c.driftCmd(),
		c.reconcileCmd(),
		c.sequenceCmd(),
		c.exportCmd(),
	)
	return rootCmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
