package ai

import "context"

// Medication is one entry as a model reports it; callers normalise it.
type Medication struct {
	Name   string   `json:"name"`
	Dosage string   `json:"dosage"`
	Times  []string `json:"suggested_times"`
}

type medicationList struct {
	Medications []Medication `json:"medications"`
}

// Enhancer recovers medications from prescription text the block parser
// could not read.
type Enhancer interface {
	ExtractMedications(ctx context.Context, text string) ([]Medication, error)
}

type Noop struct{}

func (Noop) ExtractMedications(ctx context.Context, text string) ([]Medication, error) {
	return nil, nil
}
