package usecase

// DomainError is a business-rule rejection: recovered locally, surfaced to
// the caller synchronously, and never accompanied by a state mutation.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

// TechnicalError is an infrastructure failure (remote write, broker) that the
// user may retry manually. There are no automatic retries anywhere.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}

var (
	// ErrTypeRequiredForCommitment gates entry into stage 4 and beyond.
	ErrTypeRequiredForCommitment = &DomainError{
		Code:    "TYPE_REQUIRED_FOR_COMMITMENT",
		Message: "assign a lead type (LOI or Paid Pilot) before moving to the Commitment stage",
	}

	ErrStageOutOfRange = &DomainError{
		Code:    "STAGE_OUT_OF_RANGE",
		Message: "stage must be between 1 and 6",
	}

	ErrUnknownSortMode = &DomainError{
		Code:    "UNKNOWN_SORT_MODE",
		Message: "sort mode must be DEFAULT, INTENSITY or ALPHA",
	}
)
