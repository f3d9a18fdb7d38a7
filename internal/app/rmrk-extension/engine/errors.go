package engine

import (
	"errors"
	"fmt"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/protocol"
)

// Domain failures. Every one of them is protocol.ErrFailed on the wire.
var (
	ErrCollectionNotFound = fmt.Errorf("%w: collection not found", protocol.ErrFailed)
	ErrNFTNotFound        = fmt.Errorf("%w: nft not found", protocol.ErrFailed)
	ErrResourceNotFound   = fmt.Errorf("%w: resource not found", protocol.ErrFailed)
	ErrNoPermission       = fmt.Errorf("%w: no permission", protocol.ErrFailed)
	ErrCollectionFull     = fmt.Errorf("%w: collection full", protocol.ErrFailed)
	ErrCollectionNotEmpty = fmt.Errorf("%w: collection not empty", protocol.ErrFailed)
	ErrInvalidMax         = fmt.Errorf("%w: collection max must not be zero", protocol.ErrFailed)
	ErrInvalidRoyalty     = fmt.Errorf("%w: royalty above 100", protocol.ErrFailed)
	ErrLocked             = fmt.Errorf("%w: nft locked", protocol.ErrFailed)
	ErrNonTransferable    = fmt.Errorf("%w: nft not transferable", protocol.ErrFailed)
	ErrCyclicOwnership    = fmt.Errorf("%w: cyclic ownership", protocol.ErrFailed)
	ErrTooDeep            = fmt.Errorf("%w: nesting too deep", protocol.ErrFailed)
	ErrBurnBudgetExceeded = fmt.Errorf("%w: burn budget exceeded", protocol.ErrFailed)
	ErrNotEquippable      = fmt.Errorf("%w: not equippable", protocol.ErrFailed)
	ErrCounterOverflow    = fmt.Errorf("%w: id counter exhausted", protocol.ErrFailed)
)

// Host errors. They are not domain failures and surface as faults on the calling side.
var (
	ErrUnknownFunc    = errors.New("unknown extension func")
	ErrMalformedInput = errors.New("malformed extension input")
	ErrCorruptGraph   = errors.New("ownership graph is corrupt")
)
