package services

import "github.com/seunolaitan/abxguide/backend/internal/domain/entities"

// traceBuilder accumulates pipeline steps for the evaluation trace. Steps are
// appended in execution order so identical inputs always produce identical
// traces.
type traceBuilder struct {
	steps []entities.TraceStep
}

func newTraceBuilder() *traceBuilder {
	return &traceBuilder{steps: []entities.TraceStep{}}
}

func (t *traceBuilder) add(step entities.TraceStep) {
	t.steps = append(t.steps, step)
}

func (t *traceBuilder) Steps() []entities.TraceStep {
	return t.steps
}
