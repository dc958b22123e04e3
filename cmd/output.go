package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ginjaninja78/gacha-pos/internal/validation"
)

// newTable returns a writer that aligns tab-separated columns. Call Flush
// when done.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// parseIndex parses a record position argument.
func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || i < 0 {
		return 0, validation.NewError("index", arg, validation.RuleInteger, "must be a non-negative integer")
	}
	return i, nil
}

func parseIndexes(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		i, err := parseIndex(a)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// printWarnings prints non-fatal validation errors.
func printWarnings(w io.Writer, warnings ...*validation.ValidationError) {
	for _, warn := range warnings {
		if warn != nil {
			fmt.Fprintf(w, "  ! %s\n", warn.Error())
		}
	}
}

// describeError adds the required amount to a payment mismatch.
func describeError(err error) error {
	var pm *validation.PaymentMismatchError
	if errors.As(err, &pm) {
		return fmt.Errorf("%w (required %d, short by %d)", err, pm.Required, pm.Required-pm.Paid)
	}
	return err
}

// parseAssignments splits key=value arguments. The value may be empty or
// contain further '=' and ',' characters.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: want key=value", a)
		}
		out[key] = value
	}
	return out, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
