package models

import "testing"

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "in_progress", "completed", "cancelled"} {
		if _, ok := ParseStatus(raw); !ok {
			t.Errorf("ParseStatus(%q) rejected a valid literal", raw)
		}
	}
	for _, raw := range []string{"", "done", "Pending", "IN_PROGRESS", "canceled"} {
		if _, ok := ParseStatus(raw); ok {
			t.Errorf("ParseStatus(%q) accepted an invalid literal", raw)
		}
	}
}

func TestCanTransitionTo(t *testing.T) {
	all := []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
	allowed := map[Status]map[Status]bool{
		StatusPending:    {StatusInProgress: true, StatusCancelled: true},
		StatusInProgress: {StatusCompleted: true, StatusCancelled: true},
		StatusCompleted:  {StatusCancelled: true},
		StatusCancelled:  {},
	}
	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to)
			if want := allowed[from][to]; got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	// No outgoing edge at all, not even the self-loop.
	if StatusCancelled.CanTransitionTo(StatusCancelled) {
		t.Error("cancelled -> cancelled must be rejected")
	}
}
