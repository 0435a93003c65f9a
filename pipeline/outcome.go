package pipeline

import (
	"time"

	"github.com/cjy7811/rm-vision/telemetry"
)

// OutcomeKind classifies the result of processing one frame.
type OutcomeKind uint8

const (
	OutcomeSent OutcomeKind = iota
	OutcomeSkipped
	OutcomeDetectFailed
	OutcomeEncodeFailed
	OutcomeSendFailed
	OutcomePanic

	numOutcomeKinds = int(OutcomePanic) + 1
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSent:
		return "Sent"
	case OutcomeSkipped:
		return "Skipped"
	case OutcomeDetectFailed:
		return "DetectFailed"
	case OutcomeEncodeFailed:
		return "EncodeFailed"
	case OutcomeSendFailed:
		return "SendFailed"
	case OutcomePanic:
		return "Panic"
	default:
		return "Unknown"
	}
}

// Failed reports whether the kind represents a fault.
func (k OutcomeKind) Failed() bool {
	return k >= OutcomeDetectFailed
}

// Outcome is the result of processing one frame.
type Outcome struct {
	Kind    OutcomeKind
	Err     error
	Seq     uint32
	Stats   telemetry.EncodeStats
	Elapsed time.Duration
}
