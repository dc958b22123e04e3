// =============================================================================
// Gacha POS - Shift Commands
// =============================================================================
//
// COMMAND USAGE:
//   pos shift start [--branch B] [--staff S] --cash N
//   pos shift show
//   pos shift close [--day YYYY-MM-DD] [--xlsx]
//
// CLOSE OF SHIFT:
//   1. Export logs_<day>.csv and receive_<day>.csv (and closing_<day>.xlsx)
//   2. Write summary_<day>.txt and print it
//   3. Clear the start cash and start time; the roster is kept
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/gacha-pos/internal/report"
	"github.com/ginjaninja78/gacha-pos/internal/session"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

var (
	shiftBranch string
	shiftStaff  string
	shiftCash   string
	closeDay    string
	closeXLSX   bool
)

var shiftCmd = &cobra.Command{
	Use:   "shift",
	Short: "Start, show or close the current shift",
}

var shiftStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Open a shift with a branch, a staff member and the starting cash",
	Long: `Open a shift. Branch and staff default to the current selection; names not
yet on the roster are added. The starting cash must be an integer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := pos.sessions.Load()
		if err != nil {
			return err
		}
		branch, staff := shiftBranch, shiftStaff
		if branch == "" {
			branch = sess.SelectedBranch
		}
		if staff == "" {
			staff = sess.SelectedStaff
		}
		if err := session.StartShift(sess, branch, staff, shiftCash, pos.now()); err != nil {
			return err
		}
		if err := pos.sessions.Save(sess); err != nil {
			return err
		}
		pos.log.Info("Shift started: %s / %s, start cash %d", sess.SelectedBranch, sess.SelectedStaff, sess.StartCash)
		fmt.Fprintf(cmd.OutOrStdout(), "Shift started at %s: %s / %s, start cash %d\n",
			sess.StartDatetime, sess.SelectedBranch, sess.SelectedStaff, sess.StartCash)
		return nil
	},
}

var shiftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := pos.sessions.Load()
		if err != nil {
			return err
		}
		printSession(cmd, sess)
		return nil
	},
}

var shiftCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Export the day's reports and close the shift",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := pos.sessions.Load()
		if err != nil {
			return err
		}
		now := pos.now()
		day := closeDay
		if day == "" {
			day = session.ShiftDay(sess)
		}
		if day == "" {
			day = now.Format(types.DateLayout)
		}
		if _, err := time.Parse(types.DateLayout, day); err != nil {
			return validation.NewError("day", day, validation.RuleDate, "must be YYYY-MM-DD")
		}

		exporter := report.New(pos.fm, pos.txlog, pos.receipts, pos.log, report.Options{
			XLSX: closeXLSX || pos.cfg.XLSXReports,
		})
		result, err := exporter.ExportClosing(day, sess, now)
		if err != nil {
			return err
		}

		sess.StartCash = 0
		sess.StartDatetime = ""
		if err := pos.sessions.Save(sess); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, utils.FormatShiftSummary(result.Summary))
		fmt.Fprintf(out, "Reports written to %s:\n", pos.fm.ClosingDir)
		for _, path := range []string{result.LogsFile, result.ReceiveFile, result.XLSXFile, result.SummaryFile} {
			if path != "" {
				fmt.Fprintf(out, "  %s\n", path)
			}
		}
		return nil
	},
}

func printSession(cmd *cobra.Command, sess *types.Session) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Branch:      %s\n", sess.SelectedBranch)
	fmt.Fprintf(out, "Staff:       %s\n", sess.SelectedStaff)
	if sess.StartDatetime == "" {
		fmt.Fprintln(out, "Shift:       not started")
	} else {
		fmt.Fprintf(out, "Shift start: %s\n", sess.StartDatetime)
		fmt.Fprintf(out, "Start cash:  %d\n", sess.StartCash)
	}
	fmt.Fprintf(out, "Branches:    %v\n", sess.BranchList)
	fmt.Fprintf(out, "Staff list:  %v\n", sess.StaffList)
}

func init() {
	rootCmd.AddCommand(shiftCmd)
	shiftCmd.AddCommand(shiftStartCmd, shiftShowCmd, shiftCloseCmd)

	shiftStartCmd.Flags().StringVar(&shiftBranch, "branch", "", "Branch name (default: current selection)")
	shiftStartCmd.Flags().StringVar(&shiftStaff, "staff", "", "Staff name (default: current selection)")
	shiftStartCmd.Flags().StringVar(&shiftCash, "cash", "", "Starting cash in the drawer")
	shiftStartCmd.MarkFlagRequired("cash")

	shiftCloseCmd.Flags().StringVar(&closeDay, "day", "", "Report day (default: shift start day, else today)")
	shiftCloseCmd.Flags().BoolVar(&closeXLSX, "xlsx", false, "Also write closing_<day>.xlsx")
}
