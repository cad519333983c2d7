package cmd

import (
	"errors"
	"os"

	"github.com/anoiana/soa-version1/database"
	"github.com/spf13/cobra"
)

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := database.SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the admin account, tables and a starter menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.AdminPassword == "" {
				opts.AdminPassword = os.Getenv("ADMIN_PASSWORD")
			}
			if opts.AdminEmail != "" && len(opts.AdminPassword) < 8 {
				return errors.New("an admin password of at least 8 characters is required (--admin-password or ADMIN_PASSWORD)")
			}

			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()
			return database.Seed(a.db, a.log, opts)
		},
	}

	cmd.Flags().StringVar(&opts.AdminName, "admin-name", "Administrator", "name of the admin account")
	cmd.Flags().StringVar(&opts.AdminEmail, "admin-email", "", "email of the admin account, empty skips it")
	cmd.Flags().StringVar(&opts.AdminPassword, "admin-password", "", "password of the admin account")
	cmd.Flags().IntVar(&opts.Tables, "tables", 10, "number of tables to create")
	return cmd
}
