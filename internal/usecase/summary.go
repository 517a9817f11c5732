package usecase

import "github.com/xavierca1/traction-hub/internal/entity"

// PipelineSummary carries the dashboard headline numbers.
type PipelineSummary struct {
	TotalLeads    int `json:"total_leads"`
	PaidPilots    int `json:"paid_pilots"`
	InCommitment  int `json:"in_commitment"` // stage >= 4
	HighIntensity int `json:"high_intensity"`
}

// Summarize counts over the full collection, ignoring the active filter.
func Summarize(leads []entity.Lead) PipelineSummary {
	var s PipelineSummary
	s.TotalLeads = len(leads)
	for _, l := range leads {
		if l.Type == entity.LeadTypePaidPilot {
			s.PaidPilots++
		}
		if l.Stage >= entity.CommitmentStage {
			s.InCommitment++
		}
		if l.IsHighIntensity {
			s.HighIntensity++
		}
	}
	return s
}

// Summary reports the headline numbers for the current collection.
func (t *Tracker) Summary() PipelineSummary {
	return Summarize(t.Leads())
}
