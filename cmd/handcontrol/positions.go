package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/handcontrol/internal/positions"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Inspect or forget stored panel positions",
}

var positionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored panel positions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stored, err := positions.New(st.Settings(), cfg.PositionsKey).Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(stored) == 0 {
			fmt.Fprintln(out, "No stored positions.")
			return nil
		}

		ids := make([]string, 0, len(stored))
		for id := range stored {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tLEFT\tTOP")
		fmt.Fprintln(w, "--\t----\t---")
		for _, id := range ids {
			p := stored[id]
			fmt.Fprintf(w, "%s\t%s\t%s\n", id, p.Left, p.Top)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		settings, err := st.Settings().List()
		if err != nil {
			return err
		}
		key := cfg.PositionsKey
		if key == "" {
			key = positions.DefaultKey
		}
		for _, setting := range settings {
			if setting.Key == key {
				fmt.Fprintf(out, "\nLast saved: %s\n", setting.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
		}
		return nil
	},
}

var positionsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every stored panel position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := positions.New(st.Settings(), cfg.PositionsKey).Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Stored positions cleared.")
		return nil
	},
}

func init() {
	positionsCmd.AddCommand(positionsListCmd, positionsResetCmd)
	rootCmd.AddCommand(positionsCmd)
}
