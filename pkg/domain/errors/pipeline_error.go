package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindSourceUnavailable Kind = "SourceUnavailable"
	KindCorruptPayload    Kind = "CorruptPayload"
	KindMissingField      Kind = "MissingField"
	KindDeliveryFailure   Kind = "DeliveryFailure"
	KindDispatchFailure   Kind = "DispatchFailure"
	KindInternal          Kind = "InternalError"
)

var (
	ErrSourceUnavailable = &PipelineError{Kind: KindSourceUnavailable}
	ErrCorruptPayload    = &PipelineError{Kind: KindCorruptPayload}
	ErrMissingField      = &PipelineError{Kind: KindMissingField}
	ErrDeliveryFailure   = &PipelineError{Kind: KindDeliveryFailure}
	ErrDispatchFailure   = &PipelineError{Kind: KindDispatchFailure}
)

// PipelineError classifies a failure of one pipeline step. Two PipelineErrors
// are equal under errors.Is when their kinds match, so the exported sentinels
// can be used to test a returned error's kind.
type PipelineError struct {
	Kind Kind
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, err error) error {
	return &PipelineError{Kind: kind, Err: err}
}

func Newf(kind Kind, format string, args ...any) error {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first PipelineError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// Describe renders err as "<kind> - <message>", the shape reported back to the
// invoking runtime.
func Describe(err error) string {
	return fmt.Sprintf("%s - %s", KindOf(err), err.Error())
}
