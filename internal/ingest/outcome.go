package ingest

// Kind classifies a terminal pipeline result. Every step reports one of
// these instead of a bare error so the worker never guesses retryability.
type Kind int

const (
	KindSuccess Kind = iota
	KindPermanent
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindPermanent:
		return "permanent"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

type Outcome struct {
	Kind   Kind
	Reason string
	Err    error
}

const (
	ReasonRouted        = "routed"
	ReasonDuplicate     = "duplicate"
	ReasonSpam          = "spam"
	ReasonMalformed     = "malformed_payload"
	ReasonRouteRejected = "route_rejected"
	ReasonTeamNotFound  = "team_not_found"
	ReasonDedupDown     = "dedup_unavailable"
	ReasonLockHeld      = "originator_locked"
	ReasonLockDown      = "lock_unavailable"
	ReasonAssignRace    = "assign_race"
	ReasonStorage       = "storage_error"
	ReasonMaxAttempts   = "max_attempts"
)

func Success(reason string) Outcome {
	return Outcome{Kind: KindSuccess, Reason: reason}
}

func Permanent(reason string, err error) Outcome {
	return Outcome{Kind: KindPermanent, Reason: reason, Err: err}
}

func Transient(reason string, err error) Outcome {
	return Outcome{Kind: KindTransient, Reason: reason, Err: err}
}
