// =============================================================================
// Gacha POS - Inventory Commands
// =============================================================================
//
// COMMAND USAGE:
//   pos inventory list [--search KEYWORD]
//   pos inventory add --set name=... --set cost=700 [--set key=value ...]
//   pos inventory update <index> --set key=value [...]
//   pos inventory delete <index> [<index> ...]
//   pos inventory import <file.xlsx|dir> [...] [--dry-run]
//   pos inventory export <path.json|path.xlsx>
//   pos inventory prices <cost>
//
// FIELD KEYS:
//   Stored names (廠商, 商品名稱, 20洞價格, ...) or aliases: vendor, keyword,
//   code, name, qty, cost, point, p20, p40, p60, p80, notes, link.
//
// IMPORT PIPELINE:
//   1. Discover .xlsx files in the given paths
//   2. Parse each file in its own goroutine
//   3. Print one line per file
//   4. Append every parsed item in argument order with one save
//      (skipped with --dry-run)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/gacha-pos/internal/inventory"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
	"github.com/ginjaninja78/gacha-pos/internal/xlsximport"
)

var (
	inventorySearch string
	inventoryFields []string
	dryRun          bool
)

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "Manage the prize inventory",
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, optionally filtered by keyword",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := pos.inventory.Load()
		if err != nil {
			return err
		}
		matches := inventory.Search(items, inventorySearch)
		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "#\tvendor\tkeyword\tcode\tname\tqty\tcost\tpoint\t20\t40\t60\t80")
		for _, m := range matches {
			it := m.Item
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d", m.Index, it.Vendor, it.Keyword, it.Code, it.Name, it.Quantity, it.Cost, it.PointPrice)
			for _, hole := range types.HoleCounts {
				if p, ok := it.TierPrice(hole); ok {
					fmt.Fprintf(w, "\t%d", p)
				} else {
					fmt.Fprint(w, "\t-")
				}
			}
			fmt.Fprintln(w)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d item(s)\n", len(matches), len(items))
		return nil
	},
}

var inventoryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an item; prices not given are derived from the cost",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseAssignments(inventoryFields)
		if err != nil {
			return err
		}
		var item types.InventoryItem
		if err := inventory.ApplyFields(&item, fields); err != nil {
			return err
		}
		if strings.TrimSpace(item.Name) == "" {
			return validation.NewError("商品名稱", "", validation.RuleRequired, "an item name is required")
		}
		idx, err := pos.inventory.Add(item)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added item %d: %s\n", idx, item.Name)
		return nil
	},
}

var inventoryUpdateCmd = &cobra.Command{
	Use:   "update <index>",
	Short: "Change fields of an item; an empty tier price removes it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		fields, err := parseAssignments(inventoryFields)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return fmt.Errorf("nothing to update: pass at least one --set key=value")
		}
		item, err := pos.inventory.Update(idx, fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated item %d: %s\n", idx, item.Name)
		return nil
	},
}

var inventoryDeleteCmd = &cobra.Command{
	Use:   "delete <index> [<index> ...]",
	Short: "Delete items",
	Long: `Delete items by position. Later items move up; transaction records keep the
position they were written with.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idxs, err := parseIndexes(args)
		if err != nil {
			return err
		}
		n, err := pos.inventory.Delete(idxs...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d item(s)\n", n)
		return nil
	},
}

var inventoryExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the inventory as JSON, or as a spreadsheet for .xlsx paths",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := pos.inventory.Export(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d item(s) to %s\n", n, args[0])
		return nil
	},
}

var inventoryPricesCmd = &cobra.Command{
	Use:   "prices <cost>",
	Short: "Show the prices derived from a purchase cost",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cost, err := decimal.NewFromString(strings.TrimSpace(args[0]))
		if err != nil || cost.IsNegative() {
			return validation.NewError("cost", args[0], validation.RuleNonNegative, "must be a non-negative number")
		}
		p := inventory.DerivePrices(cost)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Point price: %d\n", p.Point)
		for _, hole := range types.HoleCounts {
			fmt.Fprintf(out, "%d holes:    %d\n", hole, p.Tier(hole))
		}
		return nil
	},
}

// =============================================================================
// IMPORT
// =============================================================================

var inventoryImportCmd = &cobra.Command{
	Use:   "import <file.xlsx|dir> [...]",
	Short: "Import items from supplier spreadsheets",
	Long: `Import items from supplier order sheets. Directories are searched for .xlsx
files. Every file is parsed before anything is saved; with --dry-run nothing is
saved at all.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args)
	},
}

// importResult is the outcome of parsing one file.
type importResult struct {
	path   string
	result *xlsximport.Result
	err    error
}

func runImport(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	files, err := discoverSpreadsheets(args)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No .xlsx files found.")
		return nil
	}

	parser := xlsximport.NewParser(xlsximport.ColumnsFromConfig(pos.cfg.Import), pos.log)

	results := make([]importResult, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			res, err := parser.Parse(path)
			results[i] = importResult{path: path, result: res, err: err}
		}(i, file)
	}
	wg.Wait()

	var items []types.InventoryItem
	var failed, warnings int
	for _, r := range results {
		name := filepath.Base(r.path)
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.err)
			continue
		}
		fmt.Fprintf(out, "  ✓ %s: %d item(s), %d empty row(s) skipped\n", name, len(r.result.Items), r.result.SkippedRows)
		for _, w := range r.result.Warnings {
			fmt.Fprintf(out, "      ! %s\n", w)
		}
		warnings += len(r.result.Warnings)
		items = append(items, r.result.Items...)
	}

	if dryRun {
		w := newTable(out)
		fmt.Fprintln(w, "code\tname\tkeyword\tqty\tcost\tpoint")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n", it.Code, it.Name, it.Keyword, it.Quantity, it.Cost, it.PointPrice)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	} else if len(items) > 0 {
		first, err := pos.inventory.Add(items...)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added %d item(s) starting at index %d\n", len(items), first)
	}

	fmt.Fprintln(out, "\n=== Import Complete ===")
	fmt.Fprintf(out, "Files:        %d\n", len(files))
	fmt.Fprintf(out, "Failed:       %d\n", failed)
	fmt.Fprintf(out, "Items:        %d\n", len(items))
	fmt.Fprintf(out, "Warnings:     %d\n", warnings)
	fmt.Fprintf(out, "Dry run:      %s\n", yesNo(dryRun))
	fmt.Fprintf(out, "Time elapsed: %s\n", time.Since(startTime).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be imported", failed)
	}
	return nil
}

// discoverSpreadsheets expands directories into the .xlsx files they contain.
// Files named directly are used as given; Excel lock files (~$) are skipped.
func discoverSpreadsheets(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		var found []string
		err = filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || strings.HasPrefix(info.Name(), "~$") {
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".xlsx") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func init() {
	rootCmd.AddCommand(inventoryCmd)
	inventoryCmd.AddCommand(
		inventoryListCmd,
		inventoryAddCmd,
		inventoryUpdateCmd,
		inventoryDeleteCmd,
		inventoryImportCmd,
		inventoryExportCmd,
		inventoryPricesCmd,
	)

	inventoryListCmd.Flags().StringVarP(&inventorySearch, "search", "s", "", "Case-insensitive keyword to match")

	for _, c := range []*cobra.Command{inventoryAddCmd, inventoryUpdateCmd} {
		c.Flags().StringArrayVar(&inventoryFields, "set", nil, "Field to set as key=value (repeatable)")
	}
	inventoryImportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and print without saving")
}
