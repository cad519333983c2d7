package cmd

import (
	"encoding/json"

	"github.com/anoiana/soa-version1/services"
	"github.com/spf13/cobra"
)

func NewShiftsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shifts",
		Short: "Manage work shifts",
	}
	cmd.AddCommand(newShiftsGenerateCommand(rootOpts))
	cmd.AddCommand(newShiftsCurrentCommand(rootOpts))
	return cmd
}

func newShiftsGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var raiseIfFull bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create today's shifts if they do not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			shifts := services.NewShiftService(a.db, a.log, a.clock)
			result, err := shifts.CreateShiftsForToday(cmd.Context(), raiseIfFull)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&raiseIfFull, "raise-if-full", false, "fail when both shifts already exist")
	return cmd
}

func newShiftsCurrentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the active shift and its secret code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			shifts := services.NewShiftService(a.db, a.log, a.clock)
			info, err := shifts.CurrentShiftSecretCode(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, info)
		},
	}
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
