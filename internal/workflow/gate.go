// Package workflow holds the certification engine: per-step gating and the
// variable evaluator. Everything here is pure; state is always re-derived
// from the persisted mediciones so restarts and concurrent readers converge
// on the same answer.
package workflow

import (
	"sort"

	"github.com/certilote/certify-engine/internal/domain"
)

// StepState is the gate state of one maquina paso for a lote.
type StepState string

const (
	StateLocked    StepState = "Locked"
	StateUnlocked  StepState = "Unlocked"
	StateCompleted StepState = "Completed"
)

func (s StepState) String() string { return string(s) }

// StepGate pairs a paso with its derived state and, when completed, its
// medicion.
type StepGate struct {
	Paso     domain.MaquinaPaso
	State    StepState
	Medicion *domain.Medicion
}

// Phase is the derived evaluation phase of a lote.
type Phase string

const (
	PhaseNotStarted  Phase = "NotStarted"
	PhaseInProgress  Phase = "InProgress"
	PhaseAllMeasured Phase = "AllMeasured"
)

// ComputeGates derives the gate state for every paso from the persisted
// mediciones. A paso is Completed the moment its medicion exists, regardless
// of compliance; paso i is Unlocked iff paso i-1 is Completed; paso 1 has no
// predecessor. No process (empty pasos) yields no gates.
func ComputeGates(pasos []domain.MaquinaPaso, mediciones []domain.Medicion) []StepGate {
	if len(pasos) == 0 {
		return nil
	}

	ordered := make([]domain.MaquinaPaso, len(pasos))
	copy(ordered, pasos)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Numero < ordered[j].Numero
	})

	byNumero := make(map[int]*domain.Medicion, len(mediciones))
	for i := range mediciones {
		byNumero[mediciones[i].Numero] = &mediciones[i]
	}

	gates := make([]StepGate, 0, len(ordered))
	// allPriorCompleted, not just the predecessor: a stray record for a
	// later paso (possible after partial restores) must not unlock anything
	// past the first incomplete paso.
	allPriorCompleted := true
	for _, paso := range ordered {
		gate := StepGate{Paso: paso, State: StateLocked}
		if medicion, ok := byNumero[paso.Numero]; ok {
			gate.State = StateCompleted
			gate.Medicion = medicion
		} else if allPriorCompleted {
			gate.State = StateUnlocked
		}
		allPriorCompleted = allPriorCompleted && gate.State == StateCompleted
		gates = append(gates, gate)
	}

	return gates
}

// NextEligible returns the numero of the single Unlocked paso, if any.
func NextEligible(gates []StepGate) (int, bool) {
	for _, gate := range gates {
		if gate.State == StateUnlocked {
			return gate.Paso.Numero, true
		}
	}
	return 0, false
}

// CompletedCount counts pasos with a persisted medicion.
func CompletedCount(gates []StepGate) int {
	count := 0
	for _, gate := range gates {
		if gate.State == StateCompleted {
			count++
		}
	}
	return count
}

// ReadyToFinalize reports whether every paso is Completed. A lote with no
// gates (no assigned process) is never ready.
func ReadyToFinalize(gates []StepGate) bool {
	return len(gates) > 0 && CompletedCount(gates) == len(gates)
}

// EvaluationPhase derives the lote's position in the workflow.
func EvaluationPhase(gates []StepGate) Phase {
	completed := CompletedCount(gates)
	switch {
	case completed == 0:
		return PhaseNotStarted
	case len(gates) > 0 && completed == len(gates):
		return PhaseAllMeasured
	default:
		return PhaseInProgress
	}
}
