package restriction

import "errors"

// Kind classifies a validation failure.
type Kind string

// CostInconsistency is reported when an indirect chain of existing routes is
// at least as cheap as the route being validated.
const CostInconsistency Kind = "CostInconsistency"

// CostInconsistencyMessage is surfaced verbatim to API clients.
const CostInconsistencyMessage = "The cost of the direct route is greater than or equal to the cost of the indirect routes."

var (
	ErrCostInconsistency    = errors.New("restriction: cost inconsistency")
	ErrSearchBudgetExceeded = errors.New("restriction: search step budget exceeded")
)

// ValidationError describes why a candidate route was rejected.
type ValidationError struct {
	Kind    Kind
	Message string

	// Path holds the ids of the routes forming the indirect chain, first hop first.
	Path []uint
	// Cost is the running cost that was compared against the candidate. It
	// can exceed the sum along Path when a dearer arrival was tried first.
	Cost float64
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets callers match with errors.Is(err, ErrCostInconsistency).
func (e *ValidationError) Is(target error) bool {
	return target == ErrCostInconsistency && e.Kind == CostInconsistency
}

func newCostInconsistency(path []uint, cost float64) *ValidationError {
	return &ValidationError{
		Kind:    CostInconsistency,
		Message: CostInconsistencyMessage,
		Path:    path,
		Cost:    cost,
	}
}
