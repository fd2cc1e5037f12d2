package user

// Result is the outcome of a user use case; it is the only thing callers depend on.
type Result int

const (
	ResultSuccess Result = iota
	ResultFailure
	ResultNetworkError
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultFailure:
		return "FAILURE"
	case ResultNetworkError:
		return "NETWORK_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the low-cardinality metric label for r.
func (r Result) Outcome() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}
