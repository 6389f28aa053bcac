package model

import "testing"

func TestValidTaskStatus(t *testing.T) {
	for _, s := range []string{
		TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusSubmitted, TaskStatusApproved, TaskStatusRejected,
	} {
		if !ValidTaskStatus(s) {
			t.Errorf("ValidTaskStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "done", "PENDING", "cancelled"} {
		if ValidTaskStatus(s) {
			t.Errorf("ValidTaskStatus(%q) = true, want false", s)
		}
	}
}

func TestTaskStatusBefore(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{TaskStatusPending, TaskStatusAssigned, true},
		{TaskStatusPending, TaskStatusSubmitted, true},
		{TaskStatusAssigned, TaskStatusInProgress, true},
		{TaskStatusInProgress, TaskStatusSubmitted, true},
		{TaskStatusSubmitted, TaskStatusApproved, true},
		{TaskStatusSubmitted, TaskStatusRejected, true},
		{TaskStatusSubmitted, TaskStatusPending, false},
		{TaskStatusApproved, TaskStatusRejected, false},
		{TaskStatusRejected, TaskStatusApproved, false},
		{TaskStatusAssigned, TaskStatusAssigned, false},
		// Unknown statuses fail-closed.
		{"unknown", TaskStatusSubmitted, false},
		{TaskStatusPending, "unknown", false},
	}

	for _, tt := range tests {
		got := TaskStatusBefore(tt.a, tt.b)
		if got != tt.expected {
			t.Errorf("TaskStatusBefore(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	if !TaskStatusTerminal(TaskStatusApproved) || !TaskStatusTerminal(TaskStatusRejected) {
		t.Error("expected approved and rejected to be terminal")
	}
	for _, s := range []string{TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress, TaskStatusSubmitted} {
		if TaskStatusTerminal(s) {
			t.Errorf("expected %q not to be terminal", s)
		}
	}
}
