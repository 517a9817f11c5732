package usecase

import "github.com/xavierca1/traction-hub/internal/entity"

// ValidateTransition gates a stage move before the optimistic write goes out.
// It is advisory and synchronous: it knows nothing about concurrent writers
// and only rejects transitions that are known-invalid locally.
//
// The single business rule: entering Commitment (stage 4) or beyond requires
// a lead type. Everything else is allowed, including moving backwards.
func ValidateTransition(lead *entity.Lead, newStage int) error {
	if newStage >= entity.CommitmentStage && !lead.HasType() {
		return ErrTypeRequiredForCommitment
	}
	return nil
}
