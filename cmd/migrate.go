package cmd

import (
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// newApp migrates on start
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()
			a.log.Info("Schema is up to date")
			return nil
		},
	}
}
