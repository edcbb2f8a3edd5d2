package task

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"LOW", Low, false},
		{"medium", Medium, false},
		{" High ", High, false},
		{"urgent", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPriorityLabel(t *testing.T) {
	if got := High.Label(); got != "High" {
		t.Errorf("High.Label() = %q, want High", got)
	}
	if got := Priority("").Label(); got != "" {
		t.Errorf("empty Label() = %q, want empty", got)
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		Due *Date `json:"due"`
	}

	d := Date{Year: 2026, Month: time.February, Day: 3}
	data, err := json.Marshal(wrapper{Due: &d})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"due":"2026-02-03"}` {
		t.Fatalf("marshal = %s", data)
	}

	data, _ = json.Marshal(wrapper{})
	if string(data) != `{"due":null}` {
		t.Fatalf("marshal nil = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"due":"2024-02-29"}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Due == nil || *w.Due != (Date{Year: 2024, Month: time.February, Day: 29}) {
		t.Fatalf("unmarshal = %v", w.Due)
	}

	if err := json.Unmarshal([]byte(`{"due":"2023-02-29"}`), &w); err == nil {
		t.Fatal("unmarshal invalid date: want error")
	}
}

func TestDateBefore(t *testing.T) {
	a := Date{Year: 2026, Month: time.January, Day: 31}
	b := Date{Year: 2026, Month: time.February, Day: 1}
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Fatalf("Before ordering wrong for %s and %s", a, b)
	}
}

func TestNewAssignsFreshIDs(t *testing.T) {
	a := New("a", "", Low, nil)
	b := New("a", "", Low, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("IDs not unique: %q %q", a.ID, b.ID)
	}
	if a.Completed {
		t.Fatal("new task is completed")
	}
}

func TestNewCopiesDueDate(t *testing.T) {
	d := Date{Year: 2026, Month: time.March, Day: 1}
	task := New("a", "", Low, &d)
	d.Day = 9
	if task.DueDate.Day != 1 {
		t.Fatal("task shares due date with caller")
	}
}

func TestToggledLeavesOriginal(t *testing.T) {
	orig := New("a", "", Low, &Date{Year: 2026, Month: time.March, Day: 1})
	flipped := orig.Toggled()
	if orig.Completed || !flipped.Completed {
		t.Fatalf("Toggled: orig %v flipped %v", orig.Completed, flipped.Completed)
	}
	flipped.DueDate.Day = 20
	if orig.DueDate.Day != 1 {
		t.Fatal("Toggled copy shares due date")
	}
}

func TestOverdueAndDueLabel(t *testing.T) {
	today := Date{Year: 2026, Month: time.June, Day: 10}
	past := &Date{Year: 2026, Month: time.June, Day: 9}

	open := New("a", "", Low, past)
	if !open.Overdue(today) {
		t.Error("open past-due task not overdue")
	}
	if open.WithCompleted(true).Overdue(today) {
		t.Error("completed task reported overdue")
	}
	if New("b", "", Low, nil).Overdue(today) {
		t.Error("task without due date reported overdue")
	}

	if got := open.DueLabel(); got != "Due: 2026-06-09" {
		t.Errorf("DueLabel = %q", got)
	}
	if got := New("b", "", Low, nil).DueLabel(); got != "No due date" {
		t.Errorf("DueLabel without date = %q", got)
	}
}

func TestValidateInput(t *testing.T) {
	if err := ValidateInput(Task{Title: "  ", Priority: Low}); err == nil {
		t.Error("blank title accepted")
	}
	if err := ValidateInput(Task{Title: "x", Priority: "URGENT"}); err == nil {
		t.Error("unknown priority accepted")
	}
	if err := ValidateInput(Task{Title: "x", Priority: Medium}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}
