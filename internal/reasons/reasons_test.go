package reasons

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestStore(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "reasons.json"), nil)

	list, err := s.List()
	if err != nil || len(list) != 0 {
		t.Fatalf("List on missing file = %v, %v", list, err)
	}

	for _, r := range []string{"生日", "老客戶", "生日", "  "} {
		if _, err := s.Add(r); err != nil {
			t.Fatalf("Add(%q): %v", r, err)
		}
	}
	list, _ = s.List()
	if want := []string{"生日", "老客戶"}; !reflect.DeepEqual(list, want) {
		t.Errorf("List = %v, want %v", list, want)
	}

	ok, err := s.Remove("生日")
	if err != nil || !ok {
		t.Fatalf("Remove = %v, %v", ok, err)
	}
	if ok, _ := s.Remove("生日"); ok {
		t.Error("second Remove reported success")
	}
	list, _ = s.List()
	if want := []string{"老客戶"}; !reflect.DeepEqual(list, want) {
		t.Errorf("List = %v, want %v", list, want)
	}
}
