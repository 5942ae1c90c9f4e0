package domain

import (
	"testing"
	"time"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"past due and open", Task{DueDate: &past}, true},
		{"past due but completed", Task{DueDate: &past, Completed: true}, false},
		{"future due date", Task{DueDate: &future}, false},
		{"no due date", Task{}, false},
		{"due exactly now", Task{DueDate: &now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskPatchApplyTo(t *testing.T) {
	due := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	task := Task{
		Title:       "original",
		Description: "desc",
		Priority:    PriorityLow,
		DueDate:     &due,
	}

	title := "renamed"
	completed := true
	patch := TaskPatch{Title: &title, Completed: &completed}
	patch.ApplyTo(&task)

	if task.Title != "renamed" || !task.Completed {
		t.Fatalf("patched fields not applied: %+v", task)
	}
	if task.Description != "desc" || task.Priority != PriorityLow || task.DueDate == nil {
		t.Fatalf("untouched fields changed: %+v", task)
	}

	TaskPatch{ClearDueDate: true}.ApplyTo(&task)
	if task.DueDate != nil {
		t.Fatal("due date not cleared")
	}
}

func TestTaskPatchIsEmpty(t *testing.T) {
	if !(TaskPatch{}).IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
	if (TaskPatch{ClearDueDate: true}).IsEmpty() {
		t.Fatal("clear-due-date patch is not empty")
	}
	s := "x"
	if (TaskPatch{Title: &s}).IsEmpty() {
		t.Fatal("title patch is not empty")
	}
}

func TestValidPriority(t *testing.T) {
	for _, p := range []string{PriorityLow, PriorityMedium, PriorityHigh} {
		if !ValidPriority(p) {
			t.Errorf("ValidPriority(%q) = false", p)
		}
	}
	for _, p := range []string{"", "urgent", "LOW"} {
		if ValidPriority(p) {
			t.Errorf("ValidPriority(%q) = true", p)
		}
	}
}
