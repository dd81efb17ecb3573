package model

import "time"

// ProductionStatus tracks an artifact through the production workflow.
type ProductionStatus string

const (
	ProductionPending   ProductionStatus = "pending"
	ProductionScripted  ProductionStatus = "scripted"
	ProductionFilmed    ProductionStatus = "filmed"
	ProductionPosted    ProductionStatus = "posted"
	ProductionDiscarded ProductionStatus = "discarded"
)

// Artifact is a derived short-form-video concept generated from one
// approved item. All mutations after creation are operator-driven.
type Artifact struct {
	ID           string `json:"id"`
	ParentItemID string `json:"parent_item_id"`

	Title          string `json:"title"`
	TargetAudience string `json:"target_audience,omitempty"`
	Hook           string `json:"hook"`
	Concept        string `json:"concept"`
	Visuals        string `json:"visuals,omitempty"`
	CTA            string `json:"cta,omitempty"`

	// Copied from the parent at generation time.
	RelevanceScore int    `json:"relevance_score"`
	SourceURL      string `json:"source_url,omitempty"`

	ProductionStatus   ProductionStatus `json:"production_status"`
	ProductionApproved bool             `json:"production_approved"`

	CreatedAt time.Time `json:"created_at"`
}

// ValidStatus reports whether s is a known production status.
func ValidStatus(s ProductionStatus) bool {
	switch s {
	case ProductionPending, ProductionScripted, ProductionFilmed, ProductionPosted, ProductionDiscarded:
		return true
	}
	return false
}

// ValidTransition reports whether an operator may move an artifact from one
// status to the next. The chain is pending -> scripted -> filmed -> posted;
// discarded is reachable from any non-terminal state. posted and discarded
// are terminal.
func ValidTransition(from, to ProductionStatus) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if from == ProductionPosted || from == ProductionDiscarded {
		return false
	}
	if to == ProductionDiscarded {
		return true
	}
	switch from {
	case ProductionPending:
		return to == ProductionScripted
	case ProductionScripted:
		return to == ProductionFilmed
	case ProductionFilmed:
		return to == ProductionPosted
	}
	return false
}
