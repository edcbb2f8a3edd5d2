package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "tasks.json")
	s, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	return s, path
}

func date(t *testing.T, s string) *Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return &d
}

func TestNewJSONStoreCreatesFile(t *testing.T) {
	s, path := newTestStore(t)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read created file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("new file = %q, want empty array", data)
	}

	tasks, err := s.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("FindAll on new file = %d tasks, want 0", len(tasks))
	}
}

func TestJSONStoreSaveFindByID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	want := New("write report", "quarterly", High, date(t, "2026-03-01"))
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.FindByID(ctx, want.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !ok {
		t.Fatal("FindByID ok = false, want true")
	}
	if !Equal(got, want) {
		t.Fatalf("FindByID = %+v, want %+v", got, want)
	}

	if _, ok, _ := s.FindByID(ctx, "missing"); ok {
		t.Fatal("FindByID(missing) ok = true, want false")
	}
}

func TestJSONStoreRoundTripAllPriorities(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	in := []Task{
		New("low", "", Low, nil),
		New("medium", "with description", Medium, date(t, "2025-12-31")),
		New("high", "", High, date(t, "2026-01-02")).WithCompleted(true),
	}
	for _, task := range in {
		if err := s.Save(ctx, task); err != nil {
			t.Fatalf("Save(%s): %v", task.Title, err)
		}
	}

	reopened, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	out, err := reopened.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("FindAll = %d tasks, want %d", len(out), len(in))
	}
	for i := range in {
		if !Equal(out[i], in[i]) {
			t.Errorf("task %d = %+v, want %+v", i, out[i], in[i])
		}
	}
	if out[0].DueDate != nil {
		t.Errorf("absent due date came back as %v", out[0].DueDate)
	}
}

func TestJSONStoreFileFormat(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	if err := s.Save(ctx, Task{ID: "a", Title: "no date", Priority: Low}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, Task{ID: "b", Title: "dated", Priority: High, DueDate: date(t, "2026-07-04")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`"dueDate": null`,
		`"dueDate": "2026-07-04"`,
		`"priority": "HIGH"`,
		`"completed": false`,
		"\n  {",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("file missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, `"dueDate": ""`) {
		t.Errorf("absent due date written as empty string:\n%s", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("file has no trailing newline")
	}
}

func TestJSONStoreSaveDuplicateID(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	first := Task{ID: "same", Title: "first", Priority: Low}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, _ := os.ReadFile(path)

	err := s.Save(ctx, Task{ID: "same", Title: "second", Priority: High})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Save duplicate err = %v, want ErrDuplicateID", err)
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatal("file changed after rejected Save")
	}
}

func TestJSONStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	orig := New("draft", "", Medium, nil)
	if err := s.Save(ctx, orig); err != nil {
		t.Fatalf("Save: %v", err)
	}

	edited := orig
	edited.Title = "final"
	edited.DueDate = date(t, "2026-05-05")
	if err := s.Update(ctx, edited); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _, _ := s.FindByID(ctx, orig.ID)
	if !Equal(got, edited) {
		t.Fatalf("after Update = %+v, want %+v", got, edited)
	}
}

func TestJSONStoreUpdateMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	if err := s.Save(ctx, New("keep", "", Low, nil)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, _ := s.FindAll(ctx)
	rawBefore, _ := os.ReadFile(path)

	if err := s.Update(ctx, New("ghost", "", High, nil)); err != nil {
		t.Fatalf("Update missing: %v", err)
	}

	after, _ := s.FindAll(ctx)
	if len(after) != len(before) || !Equal(after[0], before[0]) {
		t.Fatalf("FindAll changed: before %+v after %+v", before, after)
	}
	rawAfter, _ := os.ReadFile(path)
	if string(rawBefore) != string(rawAfter) {
		t.Fatal("file rewritten by no-op Update")
	}
}

func TestJSONStoreDeleteKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		if err := s.Save(ctx, Task{ID: id, Title: id, Priority: Low}); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}
	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "nope"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}

	got, _ := s.FindAll(ctx)
	var gotIDs []string
	for _, task := range got {
		gotIDs = append(gotIDs, task.ID)
	}
	if strings.Join(gotIDs, ",") != "a,c,d" {
		t.Fatalf("after Delete ids = %v, want [a c d]", gotIDs)
	}
}

func TestJSONStoreDeleteRemovesAllDuplicates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.json")
	doc := `[
  {"id": "x", "title": "one", "description": "", "priority": "LOW", "dueDate": null, "completed": false},
  {"id": "y", "title": "two", "description": "", "priority": "LOW", "dueDate": null, "completed": false},
  {"id": "x", "title": "three", "description": "", "priority": "LOW", "dueDate": null, "completed": false}
]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}

	got, _, _ := s.FindByID(ctx, "x")
	if got.Title != "one" {
		t.Fatalf("FindByID returned %q, want first match", got.Title)
	}

	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	all, _ := s.FindAll(ctx)
	if len(all) != 1 || all[0].ID != "y" {
		t.Fatalf("after Delete = %+v, want only y", all)
	}
}

func TestJSONStoreFindAllIsACopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if err := s.Save(ctx, Task{ID: "a", Title: "original", Priority: Low, DueDate: date(t, "2026-01-01")}); err != nil {
		t.Fatal(err)
	}
	first, _ := s.FindAll(ctx)
	first[0].Title = "mutated"
	first[0].DueDate.Day = 28

	second, _ := s.FindAll(ctx)
	if len(second) != 1 {
		t.Fatalf("FindAll = %d tasks, want 1", len(second))
	}
	if second[0].Title != "original" || second[0].DueDate.Day != 1 {
		t.Fatalf("store state changed through returned slice: %+v", second[0])
	}
}

func TestJSONStoreEmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore on empty file: %v", err)
	}
	tasks, err := s.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("FindAll = %d tasks, want 0", len(tasks))
	}
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte(`[{"id": "a",`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(path); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("NewJSONStore err = %v, want ErrCorrupt", err)
	}
}

func TestJSONStoreCorruptAfterOpen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FindAll(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("FindAll err = %v, want ErrCorrupt", err)
	}
	if err := s.Save(ctx, New("x", "", Low, nil)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Save err = %v, want ErrCorrupt", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Fatal("corrupt file was overwritten")
	}
}

func TestJSONStoreParentIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStore(filepath.Join(blocker, "tasks.json")); err == nil {
		t.Fatal("NewJSONStore under a regular file: want error, got nil")
	}
}

func TestJSONStoreCanceledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Save(ctx, New("x", "", Low, nil)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Save err = %v, want context.Canceled", err)
	}
	if _, err := s.FindAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("FindAll err = %v, want context.Canceled", err)
	}
}

func TestJSONStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, New("t", "", Low, nil)); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("dir entries = %v, want only tasks.json", names)
	}
}

func TestJSONStoreKeepsFileMode(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o644 {
		t.Fatalf("new file mode = %v, want 0644", fi.Mode().Perm())
	}

	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, New("secret", "", Low, nil)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fi, err = os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("mode after rewrite = %v, want 0600", fi.Mode().Perm())
	}
}
