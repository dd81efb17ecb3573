package model

import (
	"testing"
	"time"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("Go 1.23 released", "https://go.dev/blog", "notes")
	b := Fingerprint("Go 1.23 released", "https://go.dev/blog", "notes")
	if a != b {
		t.Fatalf("same inputs hashed differently: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("expected md5 hex digest of length 32, got %d (%s)", len(a), a)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint("title", "link", "desc")
	cases := map[string]string{
		"title":       Fingerprint("Title", "link", "desc"),
		"link":        Fingerprint("title", "link2", "desc"),
		"description": Fingerprint("title", "link", "desc2"),
		"whitespace":  Fingerprint("title ", "link", "desc"),
	}
	for field, fp := range cases {
		if fp == base {
			t.Errorf("changing %s did not change the fingerprint", field)
		}
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-50, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{250, 100},
		{ScoreFailed, ScoreFailed},
	}
	for _, c := range cases {
		if got := ClampScore(c.in); got != c.want {
			t.Errorf("ClampScore(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestRelevantInclusiveThreshold(t *testing.T) {
	cases := []struct {
		score, threshold int
		want             bool
	}{
		{42, 75, false},
		{74, 75, false},
		{75, 75, true},
		{100, 75, true},
		{ScoreFailed, 75, false},
		{ScoreFailed, 0, false},
		{0, 0, true},
	}
	for _, c := range cases {
		if got := Relevant(c.score, c.threshold); got != c.want {
			t.Errorf("Relevant(%d, %d) = %v, want %v", c.score, c.threshold, got, c.want)
		}
	}
}

func TestItemState(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		item CanonicalItem
		want ItemState
	}{
		{"fresh", CanonicalItem{}, StateIngested},
		{"scored low", CanonicalItem{ProcessedAt: now, RelevanceScore: 40}, StateAwaitingApproval},
		{"scored high", CanonicalItem{ProcessedAt: now, RelevanceScore: 90, IsRelevant: true}, StateAwaitingApproval},
		{"failed", CanonicalItem{ProcessedAt: now, RelevanceScore: ScoreFailed}, StateFailedScoring},
		{"approved", CanonicalItem{ProcessedAt: now, RelevanceScore: 90, HumanApproved: true}, StateApproved},
		{"generated", CanonicalItem{ProcessedAt: now, HumanApproved: true, ArtifactsGenerated: true}, StateArtifactsGenerated},
	}
	for _, c := range cases {
		if got := c.item.State(); got != c.want {
			t.Errorf("%s: State() = %s, want %s", c.name, got, c.want)
		}
	}
}
