package model

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from, to ProductionStatus
		want     bool
	}{
		{ProductionPending, ProductionScripted, true},
		{ProductionScripted, ProductionFilmed, true},
		{ProductionFilmed, ProductionPosted, true},

		{ProductionPending, ProductionFilmed, false},
		{ProductionPending, ProductionPosted, false},
		{ProductionScripted, ProductionPosted, false},
		{ProductionFilmed, ProductionScripted, false},
		{ProductionScripted, ProductionPending, false},

		{ProductionPending, ProductionDiscarded, true},
		{ProductionScripted, ProductionDiscarded, true},
		{ProductionFilmed, ProductionDiscarded, true},

		{ProductionPosted, ProductionDiscarded, false},
		{ProductionPosted, ProductionScripted, false},
		{ProductionDiscarded, ProductionPending, false},
		{ProductionDiscarded, ProductionDiscarded, false},

		{"bogus", ProductionScripted, false},
		{ProductionPending, "bogus", false},
	}
	for _, c := range cases {
		if got := ValidTransition(c.from, c.to); got != c.want {
			t.Errorf("ValidTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []ProductionStatus{ProductionPending, ProductionScripted, ProductionFilmed, ProductionPosted, ProductionDiscarded} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false, want true", s)
		}
	}
	if ValidStatus("shipped") {
		t.Errorf("ValidStatus(shipped) = true, want false")
	}
}
