package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anttttti/DuneBlend/pkg/core"
)

func TestIndex(t *testing.T) {
	t.Run("Writes Sorted Listing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.json")
		idx := newIndex(path)
		if err := idx.Load(); err != nil {
			t.Fatal(err)
		}

		idx.Set([]string{"b.md", "a.md"})
		written, err := idx.Save()
		if err != nil {
			t.Fatal(err)
		}
		if !written {
			t.Fatal("expected first save to write")
		}

		got, _ := os.ReadFile(path)
		want := "[\n  {\n    \"filename\": \"a.md\"\n  },\n  {\n    \"filename\": \"b.md\"\n  }\n]\n"
		if string(got) != want {
			t.Errorf("index = %q, want %q", got, want)
		}
	})

	t.Run("Skips Unchanged Writes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.json")
		if err := os.WriteFile(path, []byte(`[{"filename":"a.md"}]`), 0644); err != nil {
			t.Fatal(err)
		}

		idx := newIndex(path)
		if err := idx.Load(); err != nil {
			t.Fatal(err)
		}
		idx.Set([]string{"a.md"})
		idx.Add("a.md")
		idx.Remove("ghost.md")

		written, err := idx.Save()
		if err != nil {
			t.Fatal(err)
		}
		if written {
			t.Error("unchanged index should not be rewritten")
		}
		if idx.Len() != 1 {
			t.Errorf("Len() = %d, want 1", idx.Len())
		}
	})

	t.Run("Repairs Corrupt File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}

		idx := newIndex(path)
		if err := idx.Load(); err != nil {
			t.Fatalf("corrupt index should self-heal, got %v", err)
		}
		written, err := idx.Save()
		if err != nil {
			t.Fatal(err)
		}
		if !written {
			t.Error("corrupt index should be rewritten")
		}
		got, _ := os.ReadFile(path)
		if string(got) != "[]\n" {
			t.Errorf("index = %q, want empty list", got)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		idx := newIndex("")
		idx.Add("a.md")
		if written, err := idx.Save(); written || err != nil {
			t.Errorf("disabled index wrote: %v %v", written, err)
		}
	})
}

func TestMergeEvents(t *testing.T) {
	tests := []struct {
		prev, next string
		want       string
	}{
		{"CREATE", "MODIFY", "CREATE"},
		{"CREATE", "DELETE", ""},
		{"DELETE", "CREATE", "MODIFY"},
		{"MODIFY", "DELETE", "DELETE"},
		{"", "MODIFY", "CREATE"},
		{"MODIFY", "MODIFY", "MODIFY"},
	}
	for _, tt := range tests {
		got := mergeEvents(core.EventType(tt.prev), core.EventType(tt.next))
		if string(got) != tt.want {
			t.Errorf("mergeEvents(%s, %s) = %q, want %q", tt.prev, tt.next, got, tt.want)
		}
	}

	if got := settle("CREATE", true); got != "MODIFY" {
		t.Errorf("settle(CREATE, existed) = %q", got)
	}
	if got := settle("MODIFY", false); got != "CREATE" {
		t.Errorf("settle(MODIFY, new) = %q", got)
	}
	if got := settle("DELETE", false); got != "" {
		t.Errorf("settle(DELETE, new) = %q", got)
	}
}
