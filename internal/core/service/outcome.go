package service

// Outcome describes the result of a non strict lifecycle operation.
type Outcome int

const (
	// OutcomeFailed means the store write did not succeed or a hook vetoed the operation
	OutcomeFailed Outcome = iota
	// OutcomeApplied means the operation changed the record
	OutcomeApplied
	// OutcomeNotApplicable means the record was new or already deleted and no write was issued
	OutcomeNotApplicable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNotApplicable:
		return "not_applicable"
	default:
		return "failed"
	}
}
