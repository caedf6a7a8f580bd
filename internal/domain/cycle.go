package domain

type CyclePhase int

const (
	PhaseStart CyclePhase = iota
	PhaseCacheCheck
	PhaseNetworkAttempt
	PhaseResolve
	PhaseRender
	PhaseSleep
)

func (p CyclePhase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseCacheCheck:
		return "cache_check"
	case PhaseNetworkAttempt:
		return "network_attempt"
	case PhaseResolve:
		return "resolve"
	case PhaseRender:
		return "render"
	case PhaseSleep:
		return "sleep"
	default:
		return "unknown"
	}
}

type CycleOutcome string

const (
	OutcomeFresh  CycleOutcome = "fresh"
	OutcomeCached CycleOutcome = "cached"
	OutcomeNoData CycleOutcome = "no_data"
)
