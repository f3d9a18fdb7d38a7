package engine

import (
	"context"
	"math"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxNestingDepth = 16
	// MaxNestingDepthLimit bounds every configurable depth and every owner chain walk.
	MaxNestingDepthLimit = 256
)

// Engine is the reference implementation of the ledger-side RMRK engine. Every operation runs in exactly one
// storage transaction, so a failed mutating call leaves no partial state behind.
type Engine struct {
	storage         Storage
	maxNestingDepth int
}

type Option func(*Engine)

// WithMaxNestingDepth caps how many NFT owners may sit above any NFT. See EffectiveMaxNestingDepth.
func WithMaxNestingDepth(depth int) Option {
	return func(e *Engine) {
		e.maxNestingDepth = EffectiveMaxNestingDepth(depth)
	}
}

// EffectiveMaxNestingDepth is the depth enforced for a configured value: zero or less selects
// DefaultMaxNestingDepth and anything above MaxNestingDepthLimit is capped.
func EffectiveMaxNestingDepth(depth int) int {
	switch {
	case depth <= 0:
		return DefaultMaxNestingDepth
	case depth > MaxNestingDepthLimit:
		return MaxNestingDepthLimit
	default:
		return depth
	}
}

func New(storage Storage, opts ...Option) *Engine {
	e := &Engine{storage: storage, maxNestingDepth: DefaultMaxNestingDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) MaxNestingDepth() int {
	return e.maxNestingDepth
}

// NextNftID returns 0 for a collection that does not exist.
func (e *Engine) NextNftID(ctx context.Context, collectionID types.CollectionID) (id types.NftID, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		collection, found, err := tx.GetCollection(ctx, collectionID)
		if found {
			id = collection.NextNftID
		}
		return err
	})
	return id, err
}

func (e *Engine) CollectionIndex(ctx context.Context) (id types.CollectionID, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		id, err = tx.CollectionIndex(ctx)
		return err
	})
	return id, err
}

// NextResourceID returns 0 for an NFT that does not exist.
func (e *Engine) NextResourceID(ctx context.Context, key types.NFTKey) (id types.ResourceID, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		nft, found, err := tx.GetNFT(ctx, key)
		if found {
			id = nft.NextResourceID
		}
		return err
	})
	return id, err
}

// Collection returns nil when the collection does not exist.
func (e *Engine) Collection(ctx context.Context, collectionID types.CollectionID) (info *types.CollectionInfo, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		collection, found, err := tx.GetCollection(ctx, collectionID)
		if found {
			info = &collection.CollectionInfo
		}
		return err
	})
	return info, err
}

func (e *Engine) CreateCollection(ctx context.Context, call types.CallContext, metadata []byte, max *uint32, symbol []byte) (id types.CollectionID, err error) {
	if max != nil && *max == 0 {
		return 0, ErrInvalidMax
	}

	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		if id, err = tx.CollectionIndex(ctx); err != nil {
			return err
		}
		if id == math.MaxUint32 {
			return ErrCounterOverflow
		}

		collection := types.Collection{
			ID: id,
			CollectionInfo: types.CollectionInfo{
				Issuer:   call.Caller,
				Metadata: metadata,
				Max:      max,
				Symbol:   symbol,
			},
		}
		if err := tx.PutCollection(ctx, collection); err != nil {
			return err
		}
		return tx.SetCollectionIndex(ctx, id+1)
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Msgf("collection %d created by %s", id, call.Caller)
	return id, nil
}

func (e *Engine) DestroyCollection(ctx context.Context, call types.CallContext, collectionID types.CollectionID) error {
	return e.storage.ExecuteTx(ctx, func(tx Tx) error {
		collection, found, err := tx.GetCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		if !found {
			return ErrCollectionNotFound
		}
		if collection.Issuer != call.Caller {
			return ErrNoPermission
		}
		if collection.NftsCount != 0 {
			return ErrCollectionNotEmpty
		}
		return tx.DeleteCollection(ctx, collectionID)
	})
}

// MintNFT creates an NFT owned by owner, which is either an account or an existing NFT. Only the collection
// issuer may mint. The optional resource seed becomes resource 0.
func (e *Engine) MintNFT(ctx context.Context, call types.CallContext, owner types.Owner, params types.MintParams) (key types.NFTKey, err error) {
	if params.Royalty != nil && *params.Royalty > types.MaxRoyaltyPercent {
		return key, ErrInvalidRoyalty
	}
	if owner == nil {
		return key, ErrNFTNotFound
	}

	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		collection, found, err := tx.GetCollection(ctx, params.CollectionID)
		if err != nil {
			return err
		}
		if !found {
			return ErrCollectionNotFound
		}
		if collection.Issuer != call.Caller {
			return ErrNoPermission
		}
		if !collection.HasCapacity() {
			return ErrCollectionFull
		}
		if collection.NextNftID == math.MaxUint32 {
			return ErrCounterOverflow
		}

		if parent, ok := owner.(types.NFTOwner); ok {
			if err := e.checkNestTarget(ctx, tx, parent.Key(), 0); err != nil {
				return err
			}
		}

		key = types.NFTKey{CollectionID: collection.ID, NftID: collection.NextNftID}
		nft := types.NFT{
			NFTKey: key,
			NFTInfo: types.NFTInfo{
				Owner:            owner,
				RoyaltyRecipient: params.RoyaltyRecipient,
				Royalty:          params.Royalty,
				Metadata:         params.Metadata,
				Transferable:     params.Transferable,
			},
		}
		if params.Resource != nil {
			seed := params.Resource
			resource := types.Resource{
				NFTKey: key,
				ResourceInfo: types.ResourceInfo{
					ID:         nft.NextResourceID,
					Priority:   seed.Priority,
					Metadata:   seed.Metadata,
					Properties: seed.Properties,
					Equip:      seed.Equip,
				},
			}
			if err := tx.PutResource(ctx, resource); err != nil {
				return err
			}
			nft.NextResourceID++
		}
		if err := tx.PutNFT(ctx, nft); err != nil {
			return err
		}

		collection.NftsCount++
		collection.NextNftID++
		return tx.PutCollection(ctx, collection)
	})
	if err != nil {
		return types.NFTKey{}, err
	}

	log.Debug().Msgf("nft %s minted to %s", key, owner)
	return key, nil
}

// checkNestTarget verifies that an NFT subtree of the given height may be placed directly under target.
func (e *Engine) checkNestTarget(ctx context.Context, tx Tx, target types.NFTKey, height int) error {
	parent, found, err := tx.GetNFT(ctx, target)
	if err != nil {
		return err
	}
	if !found {
		return ErrNFTNotFound
	}
	if parent.Locked {
		return ErrLocked
	}
	l, err := walkLineage(ctx, tx, parent)
	if err != nil {
		return err
	}
	if l.depth()+1+height > e.maxNestingDepth {
		return ErrTooDeep
	}
	return nil
}

// BurnNFT removes the NFT and every NFT nested below it, with their resources. The whole subtree is checked
// before anything is removed: more than maxBurns nodes or any locked node fails the call with no change.
func (e *Engine) BurnNFT(ctx context.Context, call types.CallContext, key types.NFTKey, maxBurns uint32) (burned int, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		nft, err := e.ownedNFT(ctx, tx, call, key)
		if err != nil {
			return err
		}

		st, err := collectSubtree(ctx, tx, nft, int(maxBurns))
		if err != nil {
			return err
		}
		for _, node := range st.nodes {
			if node.Locked {
				return ErrLocked
			}
		}

		removed := map[types.CollectionID]uint32{}
		for i := len(st.nodes) - 1; i >= 0; i-- {
			node := st.nodes[i]
			if err := tx.DeleteResources(ctx, node.NFTKey); err != nil {
				return err
			}
			if err := tx.DeleteNFT(ctx, node.NFTKey); err != nil {
				return err
			}
			removed[node.CollectionID]++
		}

		for collectionID, count := range removed {
			collection, found, err := tx.GetCollection(ctx, collectionID)
			if err != nil {
				return err
			}
			if !found || collection.NftsCount < count {
				return ErrCorruptGraph
			}
			collection.NftsCount -= count
			if err := tx.PutCollection(ctx, collection); err != nil {
				return err
			}
		}

		burned = len(st.nodes)
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Msgf("burned %d nfts under %s", burned, key)
	return burned, nil
}

// Send moves the NFT, with everything nested in it, to a new owner. Moving an NFT under itself or under one
// of its own descendants fails with ErrCyclicOwnership.
func (e *Engine) Send(ctx context.Context, call types.CallContext, key types.NFTKey, newOwner types.Owner) error {
	return e.storage.ExecuteTx(ctx, func(tx Tx) error {
		nft, err := e.ownedNFT(ctx, tx, call, key)
		if err != nil {
			return err
		}
		if !nft.Transferable {
			return ErrNonTransferable
		}
		if nft.Locked {
			return ErrLocked
		}

		switch o := newOwner.(type) {
		case types.AccountOwner:
		case types.NFTOwner:
			target := o.Key()
			if target == key {
				return ErrCyclicOwnership
			}
			targetNFT, found, err := tx.GetNFT(ctx, target)
			if err != nil {
				return err
			}
			if !found {
				return ErrNFTNotFound
			}
			l, err := walkLineage(ctx, tx, targetNFT)
			if err != nil {
				return err
			}
			if l.contains(key) {
				return ErrCyclicOwnership
			}

			st, err := collectSubtree(ctx, tx, nft, -1)
			if err != nil {
				return err
			}
			if err := e.checkNestTarget(ctx, tx, target, st.height); err != nil {
				return err
			}
		default:
			return ErrNFTNotFound
		}

		nft.Owner = newOwner
		return tx.PutNFT(ctx, nft)
	})
}

// ownedNFT loads the NFT and checks that the caller is the account at the root of its owner chain.
func (e *Engine) ownedNFT(ctx context.Context, tx Tx, call types.CallContext, key types.NFTKey) (types.NFT, error) {
	nft, found, err := tx.GetNFT(ctx, key)
	if err != nil {
		return nft, err
	}
	if !found {
		return nft, ErrNFTNotFound
	}
	l, err := walkLineage(ctx, tx, nft)
	if err != nil {
		return nft, err
	}
	if l.root != call.Caller {
		return nft, ErrNoPermission
	}
	return nft, nil
}

// RootOwner returns the account at the top of the NFT's owner chain.
func (e *Engine) RootOwner(ctx context.Context, key types.NFTKey) (root types.AccountID, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		nft, found, err := tx.GetNFT(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			return ErrNFTNotFound
		}
		l, err := walkLineage(ctx, tx, nft)
		root = l.root
		return err
	})
	return root, err
}

// NFT returns the stored NFT record.
func (e *Engine) NFT(ctx context.Context, key types.NFTKey) (nft types.NFT, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		var found bool
		nft, found, err = tx.GetNFT(ctx, key)
		if err == nil && !found {
			return ErrNFTNotFound
		}
		return err
	})
	return nft, err
}

func (e *Engine) Children(ctx context.Context, key types.NFTKey) (children []types.NFTKey, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		children, err = tx.Children(ctx, key)
		return err
	})
	return children, err
}
