// =============================================================================
// Gacha POS - Session Store
// =============================================================================
//
// The session file holds the branch and staff rosters, the current selection
// and the open shift (start cash and start time). Consumers receive the
// *types.Session explicitly; only Store touches the file.
//
// =============================================================================

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/gacha-pos/internal/logger"
	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
	"github.com/ginjaninja78/gacha-pos/pkg/utils"
)

// Store reads and writes the session file.
type Store struct {
	path string
	log  logger.Logger
}

// NewStore returns a store for the session file at path.
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{path: path, log: log}
}

// Path returns the session file location.
func (s *Store) Path() string { return s.path }

// Load reads the session. A missing file is an empty session. Missing
// selections default to the first roster entry.
func (s *Store) Load() (*types.Session, error) {
	sess := &types.Session{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Debug("Session file %s not found, starting empty", s.path)
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if sess.SelectedBranch == "" && len(sess.BranchList) > 0 {
		sess.SelectedBranch = sess.BranchList[0]
	}
	if sess.SelectedStaff == "" && len(sess.StaffList) > 0 {
		sess.SelectedStaff = sess.StaffList[0]
	}
	return sess, nil
}

// Save writes the session atomically.
func (s *Store) Save(sess *types.Session) error {
	if sess.BranchList == nil {
		sess.BranchList = []string{}
	}
	if sess.StaffList == nil {
		sess.StaffList = []string{}
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.log.Debug("Session saved to %s", s.path)
	return nil
}

// =============================================================================
// ROSTER
// =============================================================================

// AddBranch appends a branch and selects it. Blank names and duplicates are
// ignored; the return value reports whether the roster changed.
func AddBranch(sess *types.Session, name string) bool {
	return addEntry(&sess.BranchList, &sess.SelectedBranch, name)
}

// RemoveBranch removes a branch and selects the first remaining one.
func RemoveBranch(sess *types.Session, name string) bool {
	return removeEntry(&sess.BranchList, &sess.SelectedBranch, name)
}

// AddStaff appends a staff member and selects them.
func AddStaff(sess *types.Session, name string) bool {
	return addEntry(&sess.StaffList, &sess.SelectedStaff, name)
}

// RemoveStaff removes a staff member and selects the first remaining one.
func RemoveStaff(sess *types.Session, name string) bool {
	return removeEntry(&sess.StaffList, &sess.SelectedStaff, name)
}

// Select changes the current branch and/or staff. Empty arguments leave the
// selection alone. Names must be on the roster.
func Select(sess *types.Session, branch, staff string) error {
	if branch != "" {
		if !contains(sess.BranchList, branch) {
			return validation.NewError("branch", branch, validation.RuleOption, "branch is not on the roster")
		}
		sess.SelectedBranch = branch
	}
	if staff != "" {
		if !contains(sess.StaffList, staff) {
			return validation.NewError("staff", staff, validation.RuleOption, "staff is not on the roster")
		}
		sess.SelectedStaff = staff
	}
	return nil
}

func addEntry(list *[]string, selected *string, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || contains(*list, name) {
		return false
	}
	*list = append(*list, name)
	*selected = name
	return true
}

func removeEntry(list *[]string, selected *string, name string) bool {
	for i, v := range *list {
		if v != name {
			continue
		}
		*list = append((*list)[:i], (*list)[i+1:]...)
		*selected = ""
		if len(*list) > 0 {
			*selected = (*list)[0]
		}
		return true
	}
	return false
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

// =============================================================================
// SHIFT
// =============================================================================

// StartShift opens a shift for branch and staff with the given float. cash
// must be an integer. The start time is stamped from now.
func StartShift(sess *types.Session, branch, staff, cash string, now time.Time) error {
	branch = strings.TrimSpace(branch)
	staff = strings.TrimSpace(staff)
	if branch == "" {
		return validation.NewError("branch", "", validation.RuleRequired, "select a branch")
	}
	if staff == "" {
		return validation.NewError("staff", "", validation.RuleRequired, "select a staff member")
	}
	amount, err := validation.ParseInt("start_cash", cash)
	if err != nil {
		return err
	}

	// Starting a shift with a name not yet on the roster adds it.
	AddBranch(sess, branch)
	AddStaff(sess, staff)
	sess.SelectedBranch = branch
	sess.SelectedStaff = staff
	sess.StartCash = types.FlexInt(amount)
	sess.StartDatetime = now.Format(types.ShiftTimeLayout)
	return nil
}

// ShiftDay returns the calendar day of the open shift, or "" if none.
func ShiftDay(sess *types.Session) string {
	if len(sess.StartDatetime) < len(types.DateLayout) {
		return ""
	}
	return sess.StartDatetime[:len(types.DateLayout)]
}
