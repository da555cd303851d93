package domain

import (
	"strings"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var res Result
	if res.HasBlocking() {
		t.Fatalf("empty result should not block")
	}
	if _, ok := res.FirstBlocking(); ok {
		t.Fatalf("empty result should have no blocking violation")
	}

	res.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn, Message: "warn only"}}})
	if res.HasBlocking() {
		t.Fatalf("warn severity should not block")
	}

	res.Merge(Result{Violations: []Violation{
		{Rule: "b", Severity: SeverityBlock, Message: "first block"},
		{Rule: "c", Severity: SeverityBlock, Message: "second block"},
	}})
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	first, ok := res.FirstBlocking()
	if !ok || first.Message != "first block" {
		t.Fatalf("expected first blocking violation, got %+v ok=%v", first, ok)
	}
	if len(res.Violations) != 3 {
		t.Fatalf("expected 3 merged violations, got %d", len(res.Violations))
	}
}

func TestRuleViolationErrorMessage(t *testing.T) {
	err := RuleViolationError{Result: Result{Violations: []Violation{
		{Severity: SeverityWarn, Message: "ignored"},
		{Severity: SeverityBlock, Message: "tank does not exist"},
	}}}
	if !strings.Contains(err.Error(), "tank does not exist") {
		t.Fatalf("error should carry first blocking message, got %q", err.Error())
	}

	empty := RuleViolationError{}
	if empty.Error() == "" {
		t.Fatalf("empty violation error should still produce a message")
	}
}

func TestAssociationActive(t *testing.T) {
	a := Association{Status: StatusInactive}
	if a.Active() {
		t.Fatalf("inactive association reported active")
	}
	a.Status = StatusActive
	if !a.Active() {
		t.Fatalf("active association reported inactive")
	}
}
