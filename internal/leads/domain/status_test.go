package domain

import "testing"

func TestStatusSets(t *testing.T) {
	for _, s := range []string{StatusConverted, StatusInvalid, StatusNotInterested} {
		if !IsTerminal(s) {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	for _, s := range []string{StatusNew, StatusAssigned, StatusCalled, StatusInterested, StatusFollowUp} {
		if IsTerminal(s) {
			t.Fatalf("expected %s to be non-terminal", s)
		}
	}
	if !IsAssignable(StatusNew) || !IsAssignable(StatusAssigned) || IsAssignable(StatusCalled) {
		t.Fatal("only new and assigned leads are assignable")
	}
	if IsValidStatus("closed") || !IsValidStatus(StatusFollowUp) {
		t.Fatal("unexpected status validity")
	}
	if !IsValidQualityTag(QualityPoor) || IsValidQualityTag("excellent") {
		t.Fatal("unexpected quality tag validity")
	}
}
