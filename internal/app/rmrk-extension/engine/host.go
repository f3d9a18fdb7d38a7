package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/codec"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/protocol"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/rs/zerolog/log"
)

const (
	OutcomeOk     = "ok"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

// CallObserver is notified once per extension call.
type CallObserver interface {
	ObserveCall(id protocol.FuncID, outcome string, elapsed time.Duration)
}

// Host serves the opcode table on top of an Engine. It is the in-process protocol.Extension.
type Host struct {
	engine    *Engine
	observers []CallObserver
}

func NewHost(engine *Engine, observers ...CallObserver) *Host {
	return &Host{engine: engine, observers: observers}
}

// Call decodes input for id, runs the operation and encodes the reply. Domain failures come back as
// StatusFailed with a nil error; a non-nil error means the host could not answer at all.
func (h *Host) Call(ctx context.Context, call types.CallContext, id protocol.FuncID, input []byte) (status uint32, output []byte, err error) {
	start := time.Now()
	defer func() {
		outcome := OutcomeOk
		switch {
		case err != nil:
			outcome = OutcomeError
		case status == protocol.StatusFailed:
			outcome = OutcomeFailed
		}
		for _, o := range h.observers {
			o.ObserveCall(id, outcome, time.Since(start))
		}
	}()

	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	switch id {
	case protocol.FuncNextNftID:
		var args protocol.CollectionArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		next, err := h.engine.NextNftID(ctx, args.CollectionID)
		return bare(id, err, func(e *codec.Encoder) { e.PutU32(uint32(next)) })

	case protocol.FuncCollectionIndex:
		if err := decode(id, input, &protocol.NoArgs{}); err != nil {
			return 0, nil, err
		}
		index, err := h.engine.CollectionIndex(ctx)
		return bare(id, err, func(e *codec.Encoder) { e.PutU32(uint32(index)) })

	case protocol.FuncNextResourceID:
		var args protocol.NFTArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		next, err := h.engine.NextResourceID(ctx, args.Key())
		return bare(id, err, func(e *codec.Encoder) { e.PutU32(uint32(next)) })

	case protocol.FuncCollections:
		var args protocol.CollectionArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		info, err := h.engine.Collection(ctx, args.CollectionID)
		return result(id, err, func(e *codec.Encoder) {
			e.PutOption(info != nil, func(e *codec.Encoder) { protocol.PutCollectionInfo(e, *info) })
		})

	case protocol.FuncPriorities:
		var args protocol.ResourceArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		priority, err := h.engine.Priority(ctx, args.Key(), args.ResourceID)
		return bare(id, err, func(e *codec.Encoder) { e.PutU32(priority) })

	case protocol.FuncResources:
		var args protocol.ResourceArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		info, err := h.engine.Resource(ctx, args.Key(), args.ResourceID)
		return result(id, err, func(e *codec.Encoder) { protocol.PutResourceInfo(e, info) })

	case protocol.FuncEquippableBases:
		var args protocol.EquippableBasesArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		key := types.NFTKey{CollectionID: args.CollectionID, NftID: args.NftID}
		return result(id, h.engine.EquippableBases(ctx, key, args.BaseID), nil)

	case protocol.FuncEquippableSlots:
		var args protocol.EquippableSlotsArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		key := types.NFTKey{CollectionID: args.CollectionID, NftID: args.NftID}
		return result(id, h.engine.EquippableSlots(ctx, key, args.ResourceID, args.BaseID, args.SlotID), nil)

	case protocol.FuncProperties:
		var args protocol.ResourceArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		properties, err := h.engine.Properties(ctx, args.Key(), args.ResourceID)
		return result(id, err, func(e *codec.Encoder) { e.PutBytes(properties) })

	case protocol.FuncLock:
		var args protocol.NFTArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		locked, err := h.engine.Lock(ctx, args.Key())
		return result(id, err, func(e *codec.Encoder) { e.PutBool(locked) })

	case protocol.FuncMintNFT:
		var args protocol.MintNFTArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		_, err := h.engine.MintNFT(ctx, call, types.AccountOwner{Account: args.Owner}, args.MintParams)
		return result(id, err, nil)

	case protocol.FuncMintNFTDirectlyToNFT:
		var args protocol.MintNFTToNFTArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		_, err := h.engine.MintNFT(ctx, call, types.OwnerOfNFT(args.Owner), args.MintParams)
		return result(id, err, nil)

	case protocol.FuncCreateCollection:
		var args protocol.CreateCollectionArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		_, err := h.engine.CreateCollection(ctx, call, args.Metadata, args.Max, args.Symbol)
		return result(id, err, nil)

	case protocol.FuncBurnNFT:
		var args protocol.BurnNFTArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		key := types.NFTKey{CollectionID: args.CollectionID, NftID: args.NftID}
		_, err := h.engine.BurnNFT(ctx, call, key, args.MaxBurns)
		return result(id, err, nil)

	case protocol.FuncDestroyCollection:
		var args protocol.CollectionArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		return result(id, h.engine.DestroyCollection(ctx, call, args.CollectionID), nil)

	case protocol.FuncSend:
		var args protocol.SendArgs
		if err := decode(id, input, &args); err != nil {
			return 0, nil, err
		}
		key := types.NFTKey{CollectionID: args.CollectionID, NftID: args.NftID}
		return result(id, h.engine.Send(ctx, call, key, args.NewOwner), nil)

	default:
		return 0, nil, fmt.Errorf("%w: %d", ErrUnknownFunc, uint32(id))
	}
}

func decode(id protocol.FuncID, input []byte, args protocol.Args) error {
	if err := protocol.DecodeArgs(input, args); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrMalformedInput, id, err)
	}
	return nil
}

func bare(id protocol.FuncID, err error, write func(*codec.Encoder)) (uint32, []byte, error) {
	if err != nil {
		log.Error().Err(err).Msgf("extension call %s", id)
		return 0, nil, err
	}
	return protocol.StatusOk, protocol.EncodeValue(write), nil
}

func result(id protocol.FuncID, err error, write func(*codec.Encoder)) (uint32, []byte, error) {
	switch {
	case err == nil:
		return protocol.StatusOk, protocol.EncodeOk(write), nil
	case errors.Is(err, protocol.ErrFailed):
		log.Debug().Err(err).Msgf("extension call %s failed", id)
		return protocol.StatusFailed, protocol.EncodeErr(), nil
	default:
		log.Error().Err(err).Msgf("extension call %s", id)
		return 0, nil, err
	}
}
