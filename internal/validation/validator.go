// =============================================================================
// Gacha POS - Validation Engine
// =============================================================================
//
// This module validates operator input and transaction records. It covers:
//   - Input format (integers, dates, member IDs)
//   - Business rules (payment reconciliation, discount caps, prize counts)
//   - Option lists (fulfillment status, pickup method)
//
// ERROR HANDLING:
//   - Every failure is a *ValidationError carrying the field, the value and
//     the rule that was violated
//   - Warnings do not block an operation; the caller decides how to show them
//   - Record checks collect every failure into a ValidationResult instead of
//     stopping at the first one
//   - A payment that does not reconcile is a *PaymentMismatchError so the
//     caller can show the required amount
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/gacha-pos/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleInteger     = "integer"
	RuleNonNegative = "non_negative"
	RuleRange       = "range"
	RuleMemberID    = "member_id"
	RuleDate        = "date"
	RuleOption      = "option"
	RuleRequired    = "required"
	RuleSum         = "sum"
	RulePayment     = "payment"
	RuleHole        = "hole"
	RuleFree        = "free"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Field,
		e.Message,
		e.Value,
	)
}

// IsWarning reports whether the error is non-fatal.
func (e *ValidationError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// NewError creates a fatal validation error.
func NewError(field, value, rule, message string) *ValidationError {
	return &ValidationError{Severity: SeverityError, Field: field, Value: value, Rule: rule, Message: message}
}

// NewWarning creates a non-fatal validation error.
func NewWarning(field, value, rule, message string) *ValidationError {
	return &ValidationError{Severity: SeverityWarning, Field: field, Value: value, Rule: rule, Message: message}
}

// PaymentMismatchError is returned when the payment split does not add up to
// the amount due.
type PaymentMismatchError struct {
	Required int
	Paid     int
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("payment total %d does not match amount due %d", e.Paid, e.Required)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult collects the outcome of a multi-field check.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all validation errors (including warnings).
	Errors []error

	ErrorCount   int
	WarningCount int
}

// NewResult returns an empty, valid result.
func NewResult() *ValidationResult {
	return &ValidationResult{IsValid: true}
}

// Add records an error. Nil is ignored. Anything that is not a warning
// makes the result invalid.
func (r *ValidationResult) Add(err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, err)
	var ve *ValidationError
	if errors.As(err, &ve) && ve.IsWarning() {
		r.WarningCount++
		return
	}
	r.ErrorCount++
	r.IsValid = false
}

// Err returns the fatal errors joined, or nil.
func (r *ValidationResult) Err() error {
	var fatal []error
	for _, err := range r.Errors {
		var ve *ValidationError
		if errors.As(err, &ve) && ve.IsWarning() {
			continue
		}
		fatal = append(fatal, err)
	}
	switch len(fatal) {
	case 0:
		return nil
	case 1:
		return fatal[0]
	}
	return errors.Join(fatal...)
}

// Warnings returns the non-fatal errors.
func (r *ValidationResult) Warnings() []*ValidationError {
	var out []*ValidationError
	for _, err := range r.Errors {
		var ve *ValidationError
		if errors.As(err, &ve) && ve.IsWarning() {
			out = append(out, ve)
		}
	}
	return out
}

// =============================================================================
// FIELD VALIDATORS
// =============================================================================

var memberIDPattern = regexp.MustCompile(`^(\d{4,5}|\d{10})$`)

// ValidateMemberID accepts a 4-5 digit member number or a 10 digit phone
// number.
func ValidateMemberID(id string) error {
	if !memberIDPattern.MatchString(id) {
		return NewError("member", id, RuleMemberID, "member ID must be 4-5 digits or a 10 digit phone number")
	}
	return nil
}

// ParseInt parses a signed integer.
func ParseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, NewError(field, value, RuleInteger, "must be an integer")
	}
	return n, nil
}

// ParseNonNegativeInt parses an integer that must be zero or more. An empty
// string is 0.
func ParseNonNegativeInt(field, value string) (int, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	n, err := ParseInt(field, value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, NewError(field, value, RuleNonNegative, "must not be negative")
	}
	return n, nil
}

// ValidateNonNegative checks an already-parsed amount.
func ValidateNonNegative(field string, n int) error {
	if n < 0 {
		return NewError(field, strconv.Itoa(n), RuleNonNegative, "must not be negative")
	}
	return nil
}

// ValidateHole accepts the supported board sizes.
func ValidateHole(hole int) error {
	if !types.ValidHole(hole) {
		return NewError("hole", strconv.Itoa(hole), RuleHole, "hole count must be one of 20, 40, 60, 80")
	}
	return nil
}

// ValidateDate accepts YYYY-MM-DD. Empty is allowed and clears the field.
func ValidateDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(types.DateLayout, value); err != nil {
		return NewError(field, value, RuleDate, "must be a date in YYYY-MM-DD format")
	}
	return nil
}

// ValidateOption checks value against a fixed option list. Empty is allowed.
func ValidateOption(field, value string, options []string) error {
	if value == "" {
		return nil
	}
	for _, o := range options {
		if o == value {
			return nil
		}
	}
	return NewError(field, value, RuleOption, "must be one of: "+strings.Join(options, ", "))
}

// CheckPayment requires cash+transfer+points to equal due exactly.
func CheckPayment(cash, transfer, points, due int) error {
	if paid := cash + transfer + points; paid != due {
		return &PaymentMismatchError{Required: due, Paid: paid}
	}
	return nil
}

// =============================================================================
// RECORD VALIDATION
// =============================================================================

// ValidateTransaction checks the invariants of a transaction record that was
// edited after checkout. basePrice is the item's point price and
// smallPrizeValue the value of one small-prize discount.
func ValidateTransaction(rec types.TransactionRecord, basePrice, smallPrizeValue int) *ValidationResult {
	result := NewResult()

	result.Add(ValidateMemberID(rec.Member))
	result.Add(ValidateHole(rec.Hole))
	if rec.Big < 0 || rec.Big > 1 {
		result.Add(NewError("大賞", strconv.Itoa(rec.Big), RuleRange, "big prize count must be 0 or 1"))
	}
	result.Add(ValidateNonNegative("小賞", rec.Small))
	if types.ValidHole(rec.Hole) && rec.Small > rec.Hole-rec.Big {
		result.Add(NewError("小賞", strconv.Itoa(rec.Small), RuleRange,
			fmt.Sprintf("a %d hole board leaves room for at most %d small prizes", rec.Hole, rec.Hole-rec.Big)))
	}
	if rec.Big+rec.Small != rec.Draws {
		result.Add(NewError("抽數", strconv.Itoa(rec.Draws), RuleSum, "big + small must equal draws"))
	}

	if rec.DisBigCnt < 0 || rec.DisBigCnt > rec.Big {
		result.Add(NewError("dis_big_cnt", strconv.Itoa(rec.DisBigCnt), RuleRange,
			fmt.Sprintf("big prize discount must be between 0 and %d", rec.Big)))
	}
	if rec.Free && rec.DisSmallCnt != 0 {
		result.Add(NewError("dis_small_cnt", strconv.Itoa(rec.DisSmallCnt), RuleFree,
			"small prize discount is not allowed on a free redemption"))
	} else if rec.DisSmallCnt < 0 || rec.DisSmallCnt > rec.Small {
		result.Add(NewError("dis_small_cnt", strconv.Itoa(rec.DisSmallCnt), RuleRange,
			fmt.Sprintf("small prize discount must be between 0 and %d", rec.Small)))
	}

	result.Add(ValidateNonNegative("extra_dis", rec.ExtraDis))
	if rec.ExtraDis > 0 && strings.TrimSpace(rec.Reason) == "" {
		result.Add(NewError("reason", "", RuleRequired, "a reason is required for extra discount"))
	}

	result.Add(ValidateNonNegative("cash", rec.Cash))
	result.Add(ValidateNonNegative("transfer", rec.Transfer))

	wantDiscount := rec.DisBigCnt*basePrice + rec.DisSmallCnt*smallPrizeValue + rec.ExtraDis
	if rec.Discount != wantDiscount {
		result.Add(NewError("discount", strconv.Itoa(rec.Discount), RuleSum,
			fmt.Sprintf("discount must be %d", wantDiscount)))
	}
	if rec.Due != rec.Total-rec.Discount {
		result.Add(NewError("due", strconv.Itoa(rec.Due), RuleSum, "due must equal total minus discount"))
	}
	result.Add(CheckPayment(rec.Cash, rec.Transfer, rec.Points, rec.Due))

	if rec.Due < 0 {
		result.Add(NewWarning("due", strconv.Itoa(rec.Due), RuleNonNegative, "discount exceeds the total"))
	}

	return result
}
