package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/gacha-pos/internal/receive"
)

var (
	receiveFrom   string
	receiveTo     string
	receiveMember string
)

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Track prize pickup",
}

var receiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pickup records, optionally by day range and member",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateRange(receiveFrom, receiveTo); err != nil {
			return err
		}
		records, err := pos.receipts.List()
		if err != nil {
			return err
		}
		entries := receive.Filter(records, receiveFrom, receiveTo, receiveMember)

		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "#\t日期\tmember\titem\tvendor\tqty\tfree\tpick up by\tstatus\treturn\treturn date\tpicked/sent\tmethod\tnotes")
		for _, e := range entries {
			r := e.Record
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Index, r.PickupDate, r.Member, r.Item, r.Vendor, r.Qty, yesNo(r.Free),
				pos.receipts.PickupDeadline(r), r.Status, r.ReturnPerson, r.ReturnDate,
				r.PickedSentDate, r.ReceiveMethod, r.Notes)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d record(s)\n", len(entries))
		return nil
	},
}

var receiveSetCmd = &cobra.Command{
	Use:   "set <index> <field> [value]",
	Short: "Set a fulfillment field; omit the value to clear it",
	Long: `Set one fulfillment field of a pickup record. Fields:

  status (商品狀態)              one of: pos receive statuses
  return_person (回盒負責人)     free text
  return_date (回盒日期)         YYYY-MM-DD
  picked_sent_date (已取/寄日期)  YYYY-MM-DD
  receive_method (領取方式)      one of: pos receive statuses
  notes (備註)                   free text`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		value := ""
		if len(args) == 3 {
			value = args[2]
		}
		rec, err := pos.receipts.UpdateField(idx, args[1], value)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated record %d (%s, %s)\n", idx, rec.Member, rec.Item)
		return nil
	},
}

var receiveDeleteCmd = &cobra.Command{
	Use:   "delete <index> [<index> ...]",
	Short: "Delete pickup records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idxs, err := parseIndexes(args)
		if err != nil {
			return err
		}
		n, err := pos.receipts.Delete(idxs...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s)\n", n)
		return nil
	},
}

var receiveMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite a legacy JSON-array receive log as one record per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := pos.receipts.Migrate()
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Receive log is already one record per line.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d record(s) in %s\n", n, pos.receipts.Path())
		return nil
	},
}

var receiveStatusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "Show the allowed status and pickup method values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pos.receipts.Options()
		records, err := pos.receipts.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Statuses:       %s\n", strings.Join(opts.Statuses, ", "))
		fmt.Fprintf(out, "Methods:        %s\n", strings.Join(opts.Methods, ", "))
		fmt.Fprintf(out, "Hold days:      %d\n", opts.HoldDays)
		fmt.Fprintf(out, "Return persons: %s\n", strings.Join(receive.ReturnPersons(records), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(receiveCmd)
	receiveCmd.AddCommand(receiveListCmd, receiveSetCmd, receiveDeleteCmd, receiveMigrateCmd, receiveStatusesCmd)

	receiveListCmd.Flags().StringVar(&receiveFrom, "from", "", "First day (YYYY-MM-DD)")
	receiveListCmd.Flags().StringVar(&receiveTo, "to", "", "Last day (YYYY-MM-DD)")
	receiveListCmd.Flags().StringVar(&receiveMember, "member", "", "Member ID substring, case-insensitive")
}
