package session

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ginjaninja78/gacha-pos/internal/types"
	"github.com/ginjaninja78/gacha-pos/internal/validation"
)

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"), nil)
	sess, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sess.BranchList) != 0 || sess.SelectedBranch != "" {
		t.Errorf("expected empty session, got %+v", sess)
	}
}

func TestLoadLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	legacy := `{"branch_list":["台北","台中"],"staff_list":["小明"],"start_cash":"1500","start_datetime":"2025-03-01 09:00:00"}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	sess, err := NewStore(path, nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.SelectedBranch != "台北" || sess.SelectedStaff != "小明" {
		t.Errorf("selection defaults = %q/%q", sess.SelectedBranch, sess.SelectedStaff)
	}
	if sess.StartCash != 1500 {
		t.Errorf("StartCash = %d", sess.StartCash)
	}
	if ShiftDay(sess) != "2025-03-01" {
		t.Errorf("ShiftDay = %q", ShiftDay(sess))
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path, nil).Load(); err == nil {
		t.Error("expected a parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"), nil)
	sess := &types.Session{}
	AddBranch(sess, "台北")
	AddStaff(sess, "小明")

	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, sess) {
		t.Errorf("round trip = %+v, want %+v", got, sess)
	}
}

func TestRoster(t *testing.T) {
	sess := &types.Session{}

	if !AddBranch(sess, "A") || !AddBranch(sess, "B") {
		t.Fatal("AddBranch failed")
	}
	if AddBranch(sess, "A") || AddBranch(sess, "  ") {
		t.Error("duplicate or blank branch added")
	}
	if sess.SelectedBranch != "B" {
		t.Errorf("new branch not selected: %q", sess.SelectedBranch)
	}

	AddBranch(sess, "C")
	if !RemoveBranch(sess, "C") {
		t.Fatal("RemoveBranch failed")
	}
	if sess.SelectedBranch != "A" {
		t.Errorf("after removal selected %q, want first remaining", sess.SelectedBranch)
	}
	if RemoveBranch(sess, "Z") {
		t.Error("removing an unknown branch reported a change")
	}

	AddStaff(sess, "s1")
	RemoveStaff(sess, "s1")
	if sess.SelectedStaff != "" || len(sess.StaffList) != 0 {
		t.Errorf("staff not emptied: %+v", sess)
	}
}

func TestSelect(t *testing.T) {
	sess := &types.Session{}
	AddBranch(sess, "A")
	AddBranch(sess, "B")
	AddStaff(sess, "s1")

	if err := Select(sess, "A", ""); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sess.SelectedBranch != "A" || sess.SelectedStaff != "s1" {
		t.Errorf("selection = %q/%q", sess.SelectedBranch, sess.SelectedStaff)
	}
	if err := Select(sess, "", "nobody"); err == nil {
		t.Error("unknown staff selected")
	}
}

func TestStartShift(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local)

	t.Run("Valid", func(t *testing.T) {
		sess := &types.Session{}
		if err := StartShift(sess, "台北", "小明", "2000", now); err != nil {
			t.Fatalf("StartShift: %v", err)
		}
		if sess.StartCash != 2000 || sess.StartDatetime != "2025-03-01 09:30:00" {
			t.Errorf("shift = %+v", sess)
		}
		if len(sess.BranchList) != 1 || len(sess.StaffList) != 1 {
			t.Errorf("roster not updated: %+v", sess)
		}
	})

	tests := []struct {
		name, branch, staff, cash, field string
	}{
		{"NoBranch", "", "小明", "0", "branch"},
		{"NoStaff", "台北", "", "0", "staff"},
		{"BadCash", "台北", "小明", "abc", "start_cash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StartShift(&types.Session{}, tt.branch, tt.staff, tt.cash, now)
			var ve *validation.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("error = %v, want field %s", err, tt.field)
			}
		})
	}
}
