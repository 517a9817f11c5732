package entity

import (
	"errors"
	"fmt"
)

var ErrStageNotFound = errors.New("stage not found")

// StageInfo is one entry of the fixed pipeline catalog.
type StageInfo struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// The catalog is defined at process start and never mutated.
var stageCatalog = [...]StageInfo{
	{ID: 1, Label: "Identification"},
	{ID: 2, Label: "Tech Validation"},
	{ID: 3, Label: "Scope/MTA"},
	{ID: 4, Label: "Commitment"},
	{ID: 5, Label: "Execution"},
	{ID: 6, Label: "Review"},
}

// Stages returns the six pipeline stages ordered by id. Callers get a copy,
// so the catalog itself cannot be mutated.
func Stages() []StageInfo {
	out := make([]StageInfo, len(stageCatalog))
	copy(out, stageCatalog[:])
	return out
}

// StageLabel resolves a stage id to its label. The catalog is static, so a
// miss is a programming error and fails hard instead of degrading silently.
func StageLabel(id int) (string, error) {
	if id < StageMin || id > StageMax {
		return "", fmt.Errorf("%w: %d", ErrStageNotFound, id)
	}
	return stageCatalog[id-1].Label, nil
}
