package models

// CheckState is the explicit form of a (checked, passed) nullable-boolean pair.
type CheckState int

const (
	CheckUnset CheckState = iota
	CheckInProgress
	CheckFailed
	CheckPassed
)

// NewCheckState collapses the nullable pair stored on review records.
func NewCheckState(checked, passed *bool) CheckState {
	switch {
	case checked == nil:
		return CheckUnset
	case !*checked:
		return CheckInProgress
	case passed == nil:
		return CheckInProgress
	case *passed:
		return CheckPassed
	default:
		return CheckFailed
	}
}

// StepStatus maps the check state onto a task list status.
func (c CheckState) StepStatus() ReviewStepStatus {
	switch c {
	case CheckInProgress:
		return StepInProgress
	case CheckFailed:
		return StepFailed
	case CheckPassed:
		return StepCompleted
	default:
		return StepNotStarted
	}
}

// String implements fmt.Stringer.
func (c CheckState) String() string {
	switch c {
	case CheckInProgress:
		return "IN_PROGRESS"
	case CheckFailed:
		return "FAILED"
	case CheckPassed:
		return "PASSED"
	default:
		return "UNSET"
	}
}
