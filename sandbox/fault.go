package sandbox

import "fmt"

// FaultKind classifies why a strategy invocation failed.
type FaultKind string

const (
	// FaultTimeout: the script exceeded its time budget.
	FaultTimeout FaultKind = "Timeout"
	// FaultCapabilityViolation: the script imported outside the allow-list.
	FaultCapabilityViolation FaultKind = "CapabilityViolation"
	// FaultRuntime: the script failed to compile or raised at runtime.
	FaultRuntime FaultKind = "RuntimeException"
	// FaultMalformedResult: the script produced output the contract rejects.
	FaultMalformedResult FaultKind = "MalformedResult"
)

// Fault describes one failed strategy invocation. It is a descriptor on the
// Result, not a Go error: the engine records it and keeps running.
type Fault struct {
	Kind    FaultKind
	Message string
}

func (f Fault) String() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}
