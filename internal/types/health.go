package types

// HealthStatus is the outcome class of a health check, following the
// conventional monitoring exit-code scheme.
type HealthStatus int

const (
	HealthOK HealthStatus = iota
	HealthWarning
	HealthCritical
	HealthUnknown
)

func (s HealthStatus) String() string {
	switch s {
	case HealthOK:
		return "OK"
	case HealthWarning:
		return "WARNING"
	case HealthCritical:
		return "CRITICAL"
	case HealthUnknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// HealthResult pairs a status with the captured output of whatever
// produced it.
type HealthResult struct {
	Status HealthStatus
	Output string
}
