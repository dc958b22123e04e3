// =============================================================================
// Gacha POS - Transaction Log Commands
// =============================================================================
//
// COMMAND USAGE:
//   pos logs list [--from D] [--to D] [--member ID]
//   pos logs sum <index> [<index> ...]
//   pos logs delete <index> [<index> ...]
//   pos logs edit <index> [--member --big --small --dis-big --dis-small
//                          --extra --reason --cash --transfer --points]
//
// EDITING:
//   Only the flags given are changed. Draws, total, discount, due and the
//   pickup quantity are recomputed, and the record must still balance
//   before it is written back.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/gacha-pos/internal/checkout"
	"github.com/ginjaninja78/gacha-pos/internal/txlog"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
)

var (
	logsFrom   string
	logsTo     string
	logsMember string

	editOpts struct {
		member, reason                                          string
		big, small, disBig, disSmall, extra, cash, xfer, points int
	}
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Browse and correct the transaction log",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions, optionally by day range and member",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateRange(logsFrom, logsTo); err != nil {
			return err
		}
		records, err := pos.txlog.List()
		if err != nil {
			return err
		}
		entries := txlog.Filter(records, logsFrom, logsTo, logsMember)

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "#\ttime\tbranch\tstaff\tmember\titem\thole\tdraws\tbig\tsmall\tfree\ttotal\tdiscount\tdue\tcash\ttransfer\tpoints\treason")
		due := 0
		for _, e := range entries {
			r := e.Record
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
				e.Index, r.Time, r.Branch, r.Staff, r.Member, r.Item, r.Hole, r.Draws, r.Big, r.Small,
				yesNo(r.Free), r.Total, r.Discount, r.Due, r.Cash, r.Transfer, r.Points, r.Reason)
			due += r.Due
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d transaction(s), due %d\n", len(entries), due)
		return nil
	},
}

var logsSumCmd = &cobra.Command{
	Use:   "sum <index> [<index> ...]",
	Short: "Add up the amount due of selected transactions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idxs, err := parseIndexes(args)
		if err != nil {
			return err
		}
		records, err := pos.txlog.List()
		if err != nil {
			return err
		}
		sum, err := txlog.SumDue(records, idxs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Due total of %d transaction(s): %d\n", len(idxs), sum)
		return nil
	},
}

var logsDeleteCmd = &cobra.Command{
	Use:   "delete <index> [<index> ...]",
	Short: "Delete transactions",
	Long:  `Delete transactions. Their pickup records in the receive log are kept.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idxs, err := parseIndexes(args)
		if err != nil {
			return err
		}
		n, err := pos.txlog.Delete(idxs...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d transaction(s)\n", n)
		return nil
	},
}

var logsEditCmd = &cobra.Command{
	Use:   "edit <index>",
	Short: "Correct a logged transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		records, err := pos.txlog.List()
		if err != nil {
			return err
		}
		if idx >= len(records) {
			return fmt.Errorf("%w: %d", txlog.ErrIndexOutOfRange, idx)
		}
		rev := revisionFromFlags(cmd)
		if rev.Empty() {
			return fmt.Errorf("nothing to change: pass at least one field flag")
		}

		orig := records[idx]
		revised, result := checkout.Revise(orig, rev, basePrice(orig), pos.cfg.SmallPrizePointValue)
		printWarnings(cmd.OutOrStdout(), result.Warnings()...)
		if !result.IsValid {
			return describeError(result.Err())
		}
		if err := pos.txlog.Replace(idx, revised); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved transaction %d: total %d, discount %d, due %d\n",
			idx, revised.Total, revised.Discount, revised.Due)
		return nil
	},
}

// basePrice is the point price of the record's item, or 0 when the item no
// longer exists.
func basePrice(rec types.TransactionRecord) int {
	item, err := pos.inventory.Get(rec.ItemIndex)
	if err != nil {
		pos.log.Warn("Item %d of transaction not found, big prize discount valued at 0: %v", rec.ItemIndex, err)
		return 0
	}
	return item.PointPrice
}

func revisionFromFlags(cmd *cobra.Command) checkout.Revision {
	f := cmd.Flags()
	var rev checkout.Revision
	str := func(name string, v string) *string {
		if f.Changed(name) {
			return &v
		}
		return nil
	}
	num := func(name string, v int) *int {
		if f.Changed(name) {
			return &v
		}
		return nil
	}
	rev.Member = str("member", editOpts.member)
	rev.Reason = str("reason", editOpts.reason)
	rev.Big = num("big", editOpts.big)
	rev.Small = num("small", editOpts.small)
	rev.DisBigCnt = num("dis-big", editOpts.disBig)
	rev.DisSmallCnt = num("dis-small", editOpts.disSmall)
	rev.ExtraDis = num("extra", editOpts.extra)
	rev.Cash = num("cash", editOpts.cash)
	rev.Transfer = num("transfer", editOpts.xfer)
	rev.Points = num("points", editOpts.points)
	return rev
}

// validateRange checks optional YYYY-MM-DD bounds.
func validateRange(from, to string) error {
	if err := validation.ValidateDate("from", from); err != nil {
		return err
	}
	return validation.ValidateDate("to", to)
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsListCmd, logsSumCmd, logsDeleteCmd, logsEditCmd)

	logsListCmd.Flags().StringVar(&logsFrom, "from", "", "First day (YYYY-MM-DD)")
	logsListCmd.Flags().StringVar(&logsTo, "to", "", "Last day (YYYY-MM-DD)")
	logsListCmd.Flags().StringVar(&logsMember, "member", "", "Exact member ID")

	f := logsEditCmd.Flags()
	f.StringVar(&editOpts.member, "member", "", "Member ID")
	f.IntVar(&editOpts.big, "big", 0, "Big prizes")
	f.IntVar(&editOpts.small, "small", 0, "Small prizes")
	f.IntVar(&editOpts.disBig, "dis-big", 0, "Big prize discount count")
	f.IntVar(&editOpts.disSmall, "dis-small", 0, "Small prize discount count")
	f.IntVar(&editOpts.extra, "extra", 0, "Extra discount points")
	f.StringVar(&editOpts.reason, "reason", "", "Discount reason")
	f.IntVar(&editOpts.cash, "cash", 0, "Cash paid")
	f.IntVar(&editOpts.xfer, "transfer", 0, "Bank transfer paid")
	f.IntVar(&editOpts.points, "points", 0, "Points paid")
}
