package sandbox

import (
	"errors"
	"fmt"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
)

var (
	ErrOutOfGas            = errors.New("out of gas")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotPayable          = errors.New("message is not payable")
	ErrNoCode              = errors.New("no program deployed at callee")
	ErrUnknownSelector     = errors.New("no message matches selector")
	ErrPanicked            = errors.New("program panicked")
	ErrNegativeValue       = errors.New("negative value")
)

// Trap is the failure of a single call frame. Everything the frame changed has been reverted by the time a
// Trap is returned to the caller.
type Trap struct {
	Callee   types.AccountID
	Selector Selector
	Err      error
}

func (t *Trap) Error() string {
	return fmt.Sprintf("trap in %s (selector %s): %s", t.Callee, t.Selector, t.Err)
}

func (t *Trap) Unwrap() error {
	return t.Err
}

func trap(callee types.AccountID, selector Selector, err error) *Trap {
	var existing *Trap
	if errors.As(err, &existing) && existing.Callee == callee {
		return existing
	}
	return &Trap{Callee: callee, Selector: selector, Err: err}
}
