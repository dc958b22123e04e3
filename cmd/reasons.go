package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var reasonsCmd = &cobra.Command{
	Use:   "reasons",
	Short: "Manage preset discount reasons",
}

var reasonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List preset reasons with their positions for --reason-preset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := pos.reasons.List()
		if err != nil {
			return err
		}
		for i, r := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, r)
		}
		return nil
	},
}

var reasonsAddCmd = &cobra.Command{
	Use:   "add <reason>",
	Short: "Add a preset reason",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason := strings.Join(args, " ")
		added, err := pos.reasons.Add(reason)
		if err != nil {
			return err
		}
		if !added {
			fmt.Fprintf(cmd.OutOrStdout(), "%q is empty or already listed\n", reason)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q\n", reason)
		return nil
	},
}

var reasonsRemoveCmd = &cobra.Command{
	Use:   "remove <reason>",
	Short: "Remove a preset reason",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason := strings.Join(args, " ")
		removed, err := pos.reasons.Remove(reason)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("reason %q is not listed", reason)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", reason)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reasonsCmd)
	reasonsCmd.AddCommand(reasonsListCmd, reasonsAddCmd, reasonsRemoveCmd)
}
