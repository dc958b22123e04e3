package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type line struct {
	N    int    `json:"n"`
	Text string `json:"text"`
}

func TestAppendAndTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	if _, err := AppendJSONLine(path, line{N: 1, Text: "<a & b>"}); err != nil {
		t.Fatal(err)
	}
	prev, err := AppendJSONLine(path, line{N: 2, Text: "第二"})
	if err != nil {
		t.Fatal(err)
	}

	var got []line
	collect := func(_ int, b []byte) error {
		var l line
		if err := json.Unmarshal(b, &l); err != nil {
			return err
		}
		got = append(got, l)
		return nil
	}
	if err := ReadJSONLines(path, collect); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Text != "<a & b>" || got[1].Text != "第二" {
		t.Fatalf("lines = %+v", got)
	}

	if err := TruncateFile(path, prev); err != nil {
		t.Fatal(err)
	}
	got = nil
	if err := ReadJSONLines(path, collect); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].N != 1 {
		t.Errorf("after truncate = %+v", got)
	}
}

func TestAppendTerminatesPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	if err := os.WriteFile(path, []byte(`{"n":1,"text":"x"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := AppendJSONLine(path, line{N: 2}); err != nil {
		t.Fatal(err)
	}
	count := 0
	err := ReadJSONLines(path, func(_ int, b []byte) error {
		var l line
		count++
		return json.Unmarshal(b, &l)
	})
	if err != nil || count != 2 {
		t.Errorf("count = %d, err = %v", count, err)
	}
}

func TestReadJSONLinesMissingFile(t *testing.T) {
	called := false
	err := ReadJSONLines(filepath.Join(t.TempDir(), "none"), func(int, []byte) error {
		called = true
		return nil
	})
	if err != nil || called {
		t.Errorf("err = %v, called = %v", err, called)
	}
}

func TestWriteJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	if err := WriteJSONLines(path, []line{{N: 1}, {N: 2}, {N: 3}}); err != nil {
		t.Fatal(err)
	}
	var lines []int
	err := ReadJSONLines(path, func(no int, _ []byte) error {
		lines = append(lines, no)
		return nil
	})
	if err != nil || len(lines) != 3 || lines[2] != 3 {
		t.Errorf("lines = %v, err = %v", lines, err)
	}
}
