package protocol

import (
	"context"
	"errors"
	"fmt"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/codec"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
)

// Extension is the port to the ledger-side engine. status and output are what the engine produced; err is
// reserved for the port failing to produce anything at all.
type Extension interface {
	Call(ctx context.Context, call types.CallContext, id FuncID, input []byte) (status uint32, output []byte, err error)
}

// Client is the contract-side wrapper: it encodes arguments, dispatches through the Extension and decodes
// the declared result shape. Domain failures come back as ErrFailed; protocol corruption panics with *Fault.
type Client struct {
	ext Extension
}

func NewClient(ext Extension) *Client {
	return &Client{ext: ext}
}

func (c *Client) dispatch(ctx context.Context, call types.CallContext, id FuncID, args Args) (uint32, []byte) {
	status, output, err := c.ext.Call(ctx, call, id, EncodeArgs(args))
	if err != nil {
		fault(id, FaultHost, status, err)
	}
	return status, output
}

// bare ignores the status and decodes the output with read, which must consume it exactly.
func (c *Client) bare(ctx context.Context, call types.CallContext, id FuncID, args Args, read func(*codec.Decoder)) {
	status, output := c.dispatch(ctx, call, id, args)
	d := codec.NewDecoder(output)
	read(d)
	if err := d.Finish(); err != nil {
		fault(id, FaultMalformedResponse, status, err)
	}
}

// result applies the status convention, then decodes Result<T, RmrkError>. read is only called for Ok and
// may be nil for unit results.
func (c *Client) result(ctx context.Context, call types.CallContext, id FuncID, args Args, read func(*codec.Decoder)) error {
	status, output := c.dispatch(ctx, call, id, args)
	switch status {
	case StatusOk:
	case StatusFailed:
		return ErrFailed
	default:
		fault(id, FaultUnknownStatus, status, nil)
	}

	d := codec.NewDecoder(output)
	resultErr := decodeResult(d)
	if resultErr == nil && d.Err() == nil && read != nil {
		read(d)
	}
	if err := d.Finish(); err != nil {
		fault(id, FaultMalformedResponse, status, err)
	}
	return resultErr
}

func (c *Client) NextNftID(ctx context.Context, call types.CallContext, collectionID types.CollectionID) types.NftID {
	var id types.NftID
	c.bare(ctx, call, FuncNextNftID, &CollectionArgs{CollectionID: collectionID}, func(d *codec.Decoder) {
		id = types.NftID(d.U32())
	})
	return id
}

func (c *Client) CollectionIndex(ctx context.Context, call types.CallContext) types.CollectionID {
	var id types.CollectionID
	c.bare(ctx, call, FuncCollectionIndex, &NoArgs{}, func(d *codec.Decoder) {
		id = types.CollectionID(d.U32())
	})
	return id
}

func (c *Client) NextResourceID(ctx context.Context, call types.CallContext, key types.NFTKey) types.ResourceID {
	var id types.ResourceID
	c.bare(ctx, call, FuncNextResourceID, &NFTArgs{CollectionID: key.CollectionID, NftID: key.NftID}, func(d *codec.Decoder) {
		id = types.ResourceID(d.U32())
	})
	return id
}

// Collections returns nil with no error when the engine reports no such collection.
func (c *Client) Collections(ctx context.Context, call types.CallContext, collectionID types.CollectionID) (*types.CollectionInfo, error) {
	var info *types.CollectionInfo
	err := c.result(ctx, call, FuncCollections, &CollectionArgs{CollectionID: collectionID}, func(d *codec.Decoder) {
		if d.Option() {
			decoded := DecodeCollectionInfo(d)
			info = &decoded
		}
	})
	return info, err
}

func (c *Client) Priorities(ctx context.Context, call types.CallContext, key types.NFTKey, resourceID types.ResourceID) uint32 {
	var priority uint32
	args := &ResourceArgs{CollectionID: key.CollectionID, NftID: key.NftID, ResourceID: resourceID}
	c.bare(ctx, call, FuncPriorities, args, func(d *codec.Decoder) {
		priority = d.U32()
	})
	return priority
}

func (c *Client) Resources(ctx context.Context, call types.CallContext, key types.NFTKey, resourceID types.ResourceID) (types.ResourceInfo, error) {
	var info types.ResourceInfo
	args := &ResourceArgs{CollectionID: key.CollectionID, NftID: key.NftID, ResourceID: resourceID}
	err := c.result(ctx, call, FuncResources, args, func(d *codec.Decoder) {
		info = DecodeResourceInfo(d)
	})
	return info, err
}

func (c *Client) EquippableBases(ctx context.Context, call types.CallContext, key types.NFTKey, baseID types.BaseID) error {
	args := &EquippableBasesArgs{CollectionID: key.CollectionID, NftID: key.NftID, BaseID: baseID}
	return c.result(ctx, call, FuncEquippableBases, args, nil)
}

func (c *Client) EquippableSlots(ctx context.Context, call types.CallContext, key types.NFTKey, resourceID types.ResourceID, baseID types.BaseID, slotID types.SlotID) error {
	args := &EquippableSlotsArgs{
		CollectionID: key.CollectionID,
		NftID:        key.NftID,
		ResourceID:   resourceID,
		BaseID:       baseID,
		SlotID:       slotID,
	}
	return c.result(ctx, call, FuncEquippableSlots, args, nil)
}

func (c *Client) Properties(ctx context.Context, call types.CallContext, key types.NFTKey, resourceID types.ResourceID) ([]byte, error) {
	var properties []byte
	args := &ResourceArgs{CollectionID: key.CollectionID, NftID: key.NftID, ResourceID: resourceID}
	err := c.result(ctx, call, FuncProperties, args, func(d *codec.Decoder) {
		properties = d.Bytes()
	})
	return properties, err
}

// Lock returns the current lock flag of the NFT.
func (c *Client) Lock(ctx context.Context, call types.CallContext, key types.NFTKey) (bool, error) {
	var locked bool
	err := c.result(ctx, call, FuncLock, &NFTArgs{CollectionID: key.CollectionID, NftID: key.NftID}, func(d *codec.Decoder) {
		locked = d.Bool()
	})
	return locked, err
}

func (c *Client) MintNFT(ctx context.Context, call types.CallContext, owner types.AccountID, params types.MintParams) error {
	if err := validateMintParams(FuncMintNFT, params); err != nil {
		return err
	}
	return c.result(ctx, call, FuncMintNFT, &MintNFTArgs{Owner: owner, MintParams: params}, nil)
}

func (c *Client) MintNFTDirectlyToNFT(ctx context.Context, call types.CallContext, owner types.NFTKey, params types.MintParams) error {
	if err := validateMintParams(FuncMintNFTDirectlyToNFT, params); err != nil {
		return err
	}
	return c.result(ctx, call, FuncMintNFTDirectlyToNFT, &MintNFTToNFTArgs{Owner: owner, MintParams: params}, nil)
}

func (c *Client) CreateCollection(ctx context.Context, call types.CallContext, metadata []byte, max *uint32, symbol []byte) error {
	args := &CreateCollectionArgs{Metadata: metadata, Max: max, Symbol: symbol}
	return c.result(ctx, call, FuncCreateCollection, args, nil)
}

func (c *Client) BurnNFT(ctx context.Context, call types.CallContext, key types.NFTKey, maxBurns uint32) error {
	args := &BurnNFTArgs{CollectionID: key.CollectionID, NftID: key.NftID, MaxBurns: maxBurns}
	return c.result(ctx, call, FuncBurnNFT, args, nil)
}

func (c *Client) DestroyCollection(ctx context.Context, call types.CallContext, collectionID types.CollectionID) error {
	return c.result(ctx, call, FuncDestroyCollection, &CollectionArgs{CollectionID: collectionID}, nil)
}

func (c *Client) Send(ctx context.Context, call types.CallContext, key types.NFTKey, newOwner types.Owner) error {
	if err := validateNewOwner(key, newOwner); err != nil {
		return err
	}
	args := &SendArgs{CollectionID: key.CollectionID, NftID: key.NftID, NewOwner: newOwner}
	return c.result(ctx, call, FuncSend, args, nil)
}

func validateMintParams(id FuncID, params types.MintParams) error {
	if params.Royalty != nil && *params.Royalty > types.MaxRoyaltyPercent {
		return &ValidationError{Func: id, Field: "royalty", Reason: fmt.Sprintf("%d exceeds %d", *params.Royalty, types.MaxRoyaltyPercent)}
	}
	return nil
}

func validateNewOwner(key types.NFTKey, newOwner types.Owner) error {
	switch o := newOwner.(type) {
	case nil:
		return &ValidationError{Func: FuncSend, Field: "new_owner", Reason: "missing"}
	case types.NFTOwner:
		if o.Key() == key {
			return &ValidationError{Func: FuncSend, Field: "new_owner", Reason: "nft cannot own itself"}
		}
	}
	return nil
}

// IsFailed reports whether err is the domain failure, including caller-side validation failures.
func IsFailed(err error) bool {
	return errors.Is(err, ErrFailed)
}
