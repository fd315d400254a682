package dispatch

// Outcome classifies a command execution for counting and metrics.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeEmpty: the collaborator ran but had nothing to return.
	OutcomeEmpty
	// OutcomeInvalid: the user's argument was rejected; state unchanged.
	OutcomeInvalid
	// OutcomePending: a clarifying question was asked.
	OutcomePending
	// OutcomeUnavailable: no collaborator for the kind.
	OutcomeUnavailable
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeInvalid:
		return "invalid"
	case OutcomePending:
		return "pending"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the dispatcher's reply for one command.
type Result struct {
	Text             string
	TriggersFollowup bool
	Outcome          Outcome
}
