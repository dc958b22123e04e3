// =============================================================================
// Gacha POS - Checkout Command
// =============================================================================
//
// COMMAND USAGE:
//   pos checkout <index> [flags]
//
// The command drives the three checkout steps from flags:
//
//   Step1   --hole --big --small --free
//   Step2   --dis-big --dis-small --extra --reason | --reason-preset
//   Step3   --cash --transfer --points --member
//
// Each step's values are printed as it completes. When --member is not
// given the member ID is prompted for until it is valid; a blank line or
// end of input cancels the checkout and nothing is written.
//
// =============================================================================

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/gacha-pos/internal/checkout"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
)

// errCancelled is returned when the operator abandons the member prompt.
var errCancelled = errors.New("checkout cancelled")

var checkoutOpts struct {
	hole         int
	big          int
	small        int
	free         bool
	disBig       int
	disSmall     int
	extra        int
	reason       string
	reasonPreset int
	cash         int
	transfer     int
	points       int
	member       string
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <index>",
	Short: "Sell draws of an inventory item",
	Long: `Run a checkout for the inventory item at <index>.

The unit price is the last price charged for this item and board size, else
the item's tier price, else its point price. A free redemption needs one big
prize and every other hole drawn. The payment split must add up to the amount
due exactly.

Example:
  pos checkout 3 --hole 20 --big 1 --small 10 --dis-small 2 --cash 510`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := runCheckout(cmd, args[0])
		if errors.Is(err, errCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Checkout cancelled, nothing was recorded.")
			return nil
		}
		return describeError(err)
	},
}

func runCheckout(cmd *cobra.Command, arg string) error {
	out := cmd.OutOrStdout()
	o := checkoutOpts

	idx, err := parseIndex(arg)
	if err != nil {
		return err
	}
	item, err := pos.inventory.Get(idx)
	if err != nil {
		return err
	}
	sess, err := pos.sessions.Load()
	if err != nil {
		return err
	}
	if sess.SelectedBranch == "" || sess.SelectedStaff == "" {
		return validation.NewError("session", "", validation.RuleRequired,
			"select a branch and staff member first (pos shift start)")
	}

	flow, err := checkout.New(idx, item, sess.SelectedBranch, sess.SelectedStaff, checkout.Deps{
		Prices:          pos.txlog,
		Transactions:    pos.txlog,
		Receipts:        pos.receipts,
		Log:             pos.log,
		Now:             pos.now,
		SmallPrizeValue: pos.cfg.SmallPrizePointValue,
		OnDone: func(tx types.TransactionRecord, rec types.ReceiveRecord) {
			printCompletion(out, tx, rec, pos.receipts.PickupDeadline(rec))
		},
	})
	if err != nil {
		return err
	}

	// Step1
	if err := flow.SetHole(o.hole); err != nil {
		return err
	}
	if got, _ := flow.SetBig(o.big); got != o.big {
		fmt.Fprintf(out, "  ! big prize count set to %d\n", got)
	}
	if got, _ := flow.SetSmall(o.small); got != o.small {
		fmt.Fprintf(out, "  ! small prize count set to %d\n", got)
	}
	if err := flow.SetFree(o.free); err != nil {
		return err
	}
	fmt.Fprintf(out, "[1/3] %s  %d holes  big %d  small %d  @%d  free %s  total %d\n",
		item.Name, flow.Hole(), flow.Big(), flow.Small(), flow.UnitPrice(), yesNo(flow.Free()), flow.Total())
	if err := flow.Next(); err != nil {
		return err
	}

	// Step2
	warn, err := flow.SetDiscountBig(o.disBig)
	if err != nil {
		return err
	}
	printWarnings(out, warn)
	if o.disSmall != 0 {
		warn, err := flow.SetDiscountSmall(o.disSmall)
		if err != nil {
			return err
		}
		printWarnings(out, warn)
	}
	if err := flow.SetExtra(o.extra); err != nil {
		return err
	}
	reason, err := resolveReason(o.reason, o.reasonPreset)
	if err != nil {
		return err
	}
	if err := flow.SetReason(reason); err != nil {
		return err
	}
	if flow.Extra() > 0 && strings.TrimSpace(reason) == "" {
		fmt.Fprintln(out, "  ! extra discount given without a reason")
	}
	fmt.Fprintf(out, "[2/3] discount %d (big %d, small %d, extra %d)  due %d\n",
		flow.Discount(), flow.DiscountBig(), flow.DiscountSmall(), flow.Extra(), flow.Due())
	if flow.Due() < 0 {
		fmt.Fprintln(out, "  ! discount exceeds the total")
	}
	if err := flow.Next(); err != nil {
		return err
	}

	// Step3
	if err := flow.SetPayment(o.cash, o.transfer, o.points); err != nil {
		return err
	}
	if err := flow.CheckPayment(); err != nil {
		return err
	}
	fmt.Fprintf(out, "[3/3] cash %d  transfer %d  points %d\n", o.cash, o.transfer, o.points)

	member, err := memberID(o.member, cmd.InOrStdin(), out)
	if err != nil {
		return err
	}
	_, err = flow.Confirm(member)
	return err
}

// resolveReason returns the free-text reason, or the preset at index when
// index is not negative.
func resolveReason(text string, index int) (string, error) {
	if index < 0 {
		return text, nil
	}
	list, err := pos.reasons.List()
	if err != nil {
		return "", err
	}
	if index >= len(list) {
		return "", validation.NewError("reason-preset", fmt.Sprint(index), validation.RuleRange,
			fmt.Sprintf("there are %d preset reason(s)", len(list)))
	}
	return list[index], nil
}

// memberID returns the member ID given on the command line, or prompts for
// one when it is missing or invalid.
func memberID(given string, in io.Reader, out io.Writer) (string, error) {
	given = strings.TrimSpace(given)
	if given != "" {
		err := validation.ValidateMemberID(given)
		if err == nil {
			return given, nil
		}
		fmt.Fprintf(out, "  ! %v\n", err)
	}
	return promptMember(in, out)
}

// promptMember asks for a member ID until a valid one is entered. A blank
// line or end of input returns errCancelled.
func promptMember(in io.Reader, out io.Writer) (string, error) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Member ID (4-5 digits or 10-digit phone, blank to cancel): ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			return "", errCancelled
		}
		if verr := validation.ValidateMemberID(line); verr != nil {
			fmt.Fprintf(out, "  ! %v\n", verr)
			if errors.Is(err, io.EOF) {
				return "", errCancelled
			}
			continue
		}
		return line, nil
	}
}

func printCompletion(out io.Writer, tx types.TransactionRecord, rec types.ReceiveRecord, deadline string) {
	fmt.Fprintln(out, "Checkout complete")
	w := newTable(out)
	fmt.Fprintf(w, "  id\t%s\n", tx.ID)
	fmt.Fprintf(w, "  time\t%s\n", tx.Time)
	fmt.Fprintf(w, "  member\t%s\n", tx.Member)
	fmt.Fprintf(w, "  item\t%s (#%d)\n", tx.Item, tx.ItemIndex)
	fmt.Fprintf(w, "  draws\t%d (big %d, small %d)\n", tx.Draws, tx.Big, tx.Small)
	fmt.Fprintf(w, "  due\t%d\n", tx.Due)
	fmt.Fprintf(w, "  pickup qty\t%d\n", rec.Qty)
	if deadline != "" {
		fmt.Fprintf(w, "  pick up by\t%s\n", deadline)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(checkoutCmd)

	f := checkoutCmd.Flags()
	f.IntVar(&checkoutOpts.hole, "hole", types.HoleCounts[0], "Board size: 20, 40, 60 or 80")
	f.IntVar(&checkoutOpts.big, "big", 0, "Big prizes drawn (0 or 1)")
	f.IntVar(&checkoutOpts.small, "small", 0, "Small prizes drawn")
	f.BoolVar(&checkoutOpts.free, "free", false, "Free redemption of a cleared board")
	f.IntVar(&checkoutOpts.disBig, "dis-big", 0, "Big prizes traded for points")
	f.IntVar(&checkoutOpts.disSmall, "dis-small", 0, "Small prizes traded for points")
	f.IntVar(&checkoutOpts.extra, "extra", 0, "Extra discount points")
	f.StringVar(&checkoutOpts.reason, "reason", "", "Discount reason")
	f.IntVar(&checkoutOpts.reasonPreset, "reason-preset", -1, "Use the preset reason at this position (see pos reasons list)")
	f.IntVar(&checkoutOpts.cash, "cash", 0, "Cash paid")
	f.IntVar(&checkoutOpts.transfer, "transfer", 0, "Bank transfer paid")
	f.IntVar(&checkoutOpts.points, "points", 0, "Points paid (may be negative)")
	f.StringVar(&checkoutOpts.member, "member", "", "Member ID; prompted for when omitted")
}
