package entity

import (
	"errors"
	"strings"
)

// LeadType classifies the commitment strength of an engagement.
type LeadType string

const (
	LeadTypeUnset     LeadType = ""
	LeadTypeLOI       LeadType = "LOI"
	LeadTypePaidPilot LeadType = "PAID_PILOT"
)

const (
	StageMin = 1
	StageMax = 6

	// CommitmentStage is the threshold from which a lead type is mandatory.
	CommitmentStage = 4
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrStageOutOfRange = errors.New("stage must be between 1 and 6")
	ErrLeadNotFound    = errors.New("lead not found")
)

// Lead is one prospective or active client engagement moving through the
// pipeline. Identity is the store-assigned ID; two leads are the same record
// iff their IDs match.
type Lead struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            LeadType `json:"type,omitempty"`
	Description     string   `json:"description"`
	Stage           int      `json:"stage"` // 1-6
	StatusNote      string   `json:"status_note"`
	IsHighIntensity bool     `json:"is_high_intensity"`
}

// NewLead builds an unsaved lead at the first pipeline stage. The ID stays
// empty until the store assigns one on create.
func NewLead(name string, leadType LeadType, description, statusNote string) (*Lead, error) {
	lead := &Lead{
		Name:        name,
		Type:        leadType,
		Description: description,
		Stage:       StageMin,
		StatusNote:  statusNote,
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	return lead, nil
}

// Validate checks the record invariants that hold regardless of persistence:
// a display name and a stage inside the pipeline. The ID is not checked here
// because new leads are saved without one.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrNameRequired
	}
	if l.Stage < StageMin || l.Stage > StageMax {
		return ErrStageOutOfRange
	}
	return nil
}

// Valid reports whether a stored record satisfies the full invariant set,
// including the store-assigned ID.
func (l *Lead) Valid() bool {
	return l.ID != "" && l.Validate() == nil
}

// HasType reports whether a commitment classification has been assigned.
func (l *Lead) HasType() bool {
	return l.Type != LeadTypeUnset
}
