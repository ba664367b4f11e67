package events

import (
	"fmt"

	"github.com/srg/hrmwatch/internal/heartrate"
)

// Kind discriminates ServiceEvent variants.
type Kind int

const (
	KindNone Kind = iota
	KindDataUpdate
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDataUpdate:
		return "data"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ServiceEvent is the value exposed to consumers of the heart-rate manager:
// nothing yet, a new measurement, or an error description.
type ServiceEvent struct {
	Kind    Kind
	Sample  heartrate.Sample // valid for KindDataUpdate
	Message string           // valid for KindError
}

// None is the initial event before anything happened.
func None() ServiceEvent {
	return ServiceEvent{Kind: KindNone}
}

// DataUpdate wraps a new heart-rate sample.
func DataUpdate(s heartrate.Sample) ServiceEvent {
	return ServiceEvent{Kind: KindDataUpdate, Sample: s}
}

// Error reports a failure surfaced by the manager.
func Error(message string) ServiceEvent {
	return ServiceEvent{Kind: KindError, Message: message}
}

func (e ServiceEvent) String() string {
	switch e.Kind {
	case KindDataUpdate:
		return fmt.Sprintf("DataUpdate(%d)", e.Sample.Rate)
	case KindError:
		return fmt.Sprintf("Error(%q)", e.Message)
	default:
		return "None"
	}
}

// NewServiceSink returns a sink whose current value is None.
func NewServiceSink() *Sink[ServiceEvent] {
	return NewSink(None())
}
