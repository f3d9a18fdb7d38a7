package protocol

import (
	"errors"
	"fmt"
)

const (
	StatusOk     uint32 = 0
	StatusFailed uint32 = 1
)

// ErrFailed is the single domain failure the extension reports. Finer causes are not part of the protocol.
var ErrFailed = errors.New("rmrk: failed")

// ValidationError is an argument rejected before dispatch. It is a domain failure: errors.Is(err, ErrFailed) holds.
type ValidationError struct {
	Func   FuncID
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Func, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrFailed
}

type FaultKind int

const (
	// FaultUnknownStatus is a status code other than 0 or 1 on a result-shaped call.
	FaultUnknownStatus FaultKind = iota
	// FaultMalformedResponse is output that does not decode into the declared shape.
	FaultMalformedResponse
	// FaultHost is the port itself failing to deliver a response.
	FaultHost
)

func (k FaultKind) String() string {
	switch k {
	case FaultUnknownStatus:
		return "unknown status code"
	case FaultMalformedResponse:
		return "malformed response"
	case FaultHost:
		return "host failure"
	default:
		return "unknown fault"
	}
}

// Fault is a protocol-integrity failure. Client never returns it: it panics with a *Fault so the calling
// transaction aborts instead of continuing with a default value.
type Fault struct {
	Func   FuncID
	Kind   FaultKind
	Status uint32
	Err    error
}

func (f *Fault) Error() string {
	switch {
	case f.Kind == FaultUnknownStatus:
		return fmt.Sprintf("rmrk fault: %s: %s %d", f.Func, f.Kind, f.Status)
	case f.Err != nil:
		return fmt.Sprintf("rmrk fault: %s: %s: %s", f.Func, f.Kind, f.Err)
	default:
		return fmt.Sprintf("rmrk fault: %s: %s", f.Func, f.Kind)
	}
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func fault(id FuncID, kind FaultKind, status uint32, err error) {
	panic(&Fault{Func: id, Kind: kind, Status: status, Err: err})
}

// AsFault extracts a *Fault from a recovered panic value.
func AsFault(recovered any) (*Fault, bool) {
	f, ok := recovered.(*Fault)
	return f, ok
}
