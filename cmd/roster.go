package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/gacha-pos/internal/session"
	"github.com/ginjaninja78/gacha-pos/internal/types"
)

var (
	selectBranch string
	selectStaff  string
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the branch and staff lists",
}

var rosterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List branches and staff; the selection is marked with *",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := pos.sessions.Load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Branches:")
		for _, b := range sess.BranchList {
			fmt.Fprintf(out, "  %s %s\n", mark(b == sess.SelectedBranch), b)
		}
		fmt.Fprintln(out, "Staff:")
		for _, s := range sess.StaffList {
			fmt.Fprintf(out, "  %s %s\n", mark(s == sess.SelectedStaff), s)
		}
		return nil
	},
}

var rosterSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the current branch and/or staff member",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateRoster(cmd, func(sess *types.Session) (bool, error) {
			if err := session.Select(sess, selectBranch, selectStaff); err != nil {
				return false, err
			}
			return true, nil
		}, "Selected %s / %s")
	},
}

// rosterEdit builds an add/remove subcommand around one session function.
func rosterEdit(use, short string, fn func(*types.Session, string) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return updateRoster(cmd, func(sess *types.Session) (bool, error) {
				if !fn(sess, name) {
					fmt.Fprintf(cmd.OutOrStdout(), "No change for %q\n", name)
					return false, nil
				}
				return true, nil
			}, "Roster updated, selection %s / %s")
		},
	}
}

func updateRoster(cmd *cobra.Command, fn func(*types.Session) (bool, error), done string) error {
	sess, err := pos.sessions.Load()
	if err != nil {
		return err
	}
	changed, err := fn(sess)
	if err != nil || !changed {
		return err
	}
	if err := pos.sessions.Save(sess); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), done+"\n", sess.SelectedBranch, sess.SelectedStaff)
	return nil
}

func mark(selected bool) string {
	if selected {
		return "*"
	}
	return " "
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(
		rosterListCmd,
		rosterEdit("add-branch", "Add a branch and select it", session.AddBranch),
		rosterEdit("remove-branch", "Remove a branch", session.RemoveBranch),
		rosterEdit("add-staff", "Add a staff member and select them", session.AddStaff),
		rosterEdit("remove-staff", "Remove a staff member", session.RemoveStaff),
		rosterSelectCmd,
	)

	rosterSelectCmd.Flags().StringVar(&selectBranch, "branch", "", "Branch to select")
	rosterSelectCmd.Flags().StringVar(&selectStaff, "staff", "", "Staff member to select")
}
