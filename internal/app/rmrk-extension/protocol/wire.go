package protocol

import (
	"fmt"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/codec"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
)

const (
	ownerTagAccount uint8 = 0
	ownerTagNFT     uint8 = 1

	resultTagOk  uint8 = 0
	resultTagErr uint8 = 1

	rmrkErrorTagErrorCode uint8 = 0
	rmrkErrorCodeFailed   uint8 = 0
)

// Args is an argument tuple of one operation.
type Args interface {
	encode(e *codec.Encoder)
	decode(d *codec.Decoder)
}

func EncodeArgs(a Args) []byte {
	e := codec.NewEncoder()
	a.encode(e)
	return e.Bytes()
}

// DecodeArgs decodes input into a, rejecting short input, bad tags and trailing bytes.
func DecodeArgs(input []byte, a Args) error {
	d := codec.NewDecoder(input)
	a.decode(d)
	return d.Finish()
}

type NoArgs struct{}

func (NoArgs) encode(*codec.Encoder)  {}
func (*NoArgs) decode(*codec.Decoder) {}

type CollectionArgs struct {
	CollectionID types.CollectionID
}

func (a CollectionArgs) encode(e *codec.Encoder) {
	e.PutU32(uint32(a.CollectionID))
}

func (a *CollectionArgs) decode(d *codec.Decoder) {
	a.CollectionID = types.CollectionID(d.U32())
}

type NFTArgs struct {
	CollectionID types.CollectionID
	NftID        types.NftID
}

func (a NFTArgs) encode(e *codec.Encoder) {
	e.PutU32(uint32(a.CollectionID))
	e.PutU32(uint32(a.NftID))
}

func (a *NFTArgs) decode(d *codec.Decoder) {
	a.CollectionID = types.CollectionID(d.U32())
	a.NftID = types.NftID(d.U32())
}

func (a NFTArgs) Key() types.NFTKey {
	return types.NFTKey{CollectionID: a.CollectionID, NftID: a.NftID}
}

type ResourceArgs struct {
	CollectionID types.CollectionID
	NftID        types.NftID
	ResourceID   types.ResourceID
}

func (a ResourceArgs) encode(e *codec.Encoder) {
	e.PutU32(uint32(a.CollectionID))
	e.PutU32(uint32(a.NftID))
	e.PutU32(uint32(a.ResourceID))
}

func (a *ResourceArgs) decode(d *codec.Decoder) {
	a.CollectionID = types.CollectionID(d.U32())
	a.NftID = types.NftID(d.U32())
	a.ResourceID = types.ResourceID(d.U32())
}

func (a ResourceArgs) Key() types.NFTKey {
	return types.NFTKey{CollectionID: a.CollectionID, NftID: a.NftID}
}

type EquippableBasesArgs struct {
	CollectionID types.CollectionID
	NftID        types.NftID
	BaseID       types.BaseID
}

func (a EquippableBasesArgs) encode(e *codec.Encoder) {
	e.PutU32(uint32(a.CollectionID))
	e.PutU32(uint32(a.NftID))
	e.PutU32(uint32(a.BaseID))
}

func (a *EquippableBasesArgs) decode(d *codec.Decoder) {
	a.CollectionID = types.CollectionID(d.U32())
	a.NftID = types.NftID(d.U32())
	a.BaseID = types.BaseID(d.U32())
}

type EquippableSlotsArgs struct {
	CollectionID types.CollectionID
	NftID        types.NftID
	ResourceID   types.ResourceID
	BaseID       types.BaseID
	SlotID       types.SlotID
}

func (a EquippableSlotsArgs) encode(e *codec.Encoder) {
	e.PutU32(uint32(a.CollectionID))
	e.PutU32(uint32(a.NftID))
	e.PutU32(uint32(a.ResourceID))
	e.PutU32(uint32(a.BaseID))
	e.PutU32(uint32(a.SlotID))
}

func (a *EquippableSlotsArgs) decode(d *codec.Decoder) {
	a.CollectionID = types.CollectionID(d.U32())
	a.NftID = types.NftID(d.U32())
	a.ResourceID = types.ResourceID(d.U32())
	a.BaseID = types.BaseID(d.U32())
	a.SlotID = types.SlotID(d.U32())
}

// MintNFTArgs is mint_nft: the new NFT is owned by an account.
type MintNFTArgs struct {
	Owner types.AccountID
	types.MintParams
}

func (a MintNFTArgs) encode(e *codec.Encoder) {
	putAccountID(e, a.Owner)
	putMintParams(e, a.MintParams)
}

func (a *MintNFTArgs) decode(d *codec.Decoder) {
	a.Owner = accountID(d)
	a.MintParams = mintParams(d)
}

// MintNFTToNFTArgs is mint_nft_directly_to_nft: the new NFT is nested in an existing one.
type MintNFTToNFTArgs struct {
	Owner types.NFTKey
	types.MintParams
}

func (a MintNFTToNFTArgs) encode(e *codec.Encoder) {
	e.PutU32(uint32(a.Owner.CollectionID))
	e.PutU32(uint32(a.Owner.NftID))
	putMintParams(e, a.MintParams)
}

func (a *MintNFTToNFTArgs) decode(d *codec.Decoder) {
	a.Owner.CollectionID = types.CollectionID(d.U32())
	a.Owner.NftID = types.NftID(d.U32())
	a.MintParams = mintParams(d)
}

type CreateCollectionArgs struct {
	Metadata []byte
	Max      *uint32
	Symbol   []byte
}

func (a CreateCollectionArgs) encode(e *codec.Encoder) {
	e.PutBytes(a.Metadata)
	e.PutOption(a.Max != nil, func(e *codec.Encoder) { e.PutU32(*a.Max) })
	e.PutBytes(a.Symbol)
}

func (a *CreateCollectionArgs) decode(d *codec.Decoder) {
	a.Metadata = d.Bytes()
	a.Max = nil
	if d.Option() {
		a.Max = types.Uint32Ptr(d.U32())
	}
	a.Symbol = d.Bytes()
}

type BurnNFTArgs struct {
	CollectionID types.CollectionID
	NftID        types.NftID
	MaxBurns     uint32
}

func (a BurnNFTArgs) encode(e *codec.Encoder) {
	e.PutU32(uint32(a.CollectionID))
	e.PutU32(uint32(a.NftID))
	e.PutU32(a.MaxBurns)
}

func (a *BurnNFTArgs) decode(d *codec.Decoder) {
	a.CollectionID = types.CollectionID(d.U32())
	a.NftID = types.NftID(d.U32())
	a.MaxBurns = d.U32()
}

type SendArgs struct {
	CollectionID types.CollectionID
	NftID        types.NftID
	NewOwner     types.Owner
}

func (a SendArgs) encode(e *codec.Encoder) {
	e.PutU32(uint32(a.CollectionID))
	e.PutU32(uint32(a.NftID))
	PutOwner(e, a.NewOwner)
}

func (a *SendArgs) decode(d *codec.Decoder) {
	a.CollectionID = types.CollectionID(d.U32())
	a.NftID = types.NftID(d.U32())
	a.NewOwner = DecodeOwner(d)
}

func putAccountID(e *codec.Encoder, id types.AccountID) {
	e.PutFixed(id[:])
}

func accountID(d *codec.Decoder) types.AccountID {
	var id types.AccountID
	copy(id[:], d.Fixed(types.AccountIDSize))
	return id
}

// PutOwner writes the account-or-NFT-tuple enum. A nil owner cannot be encoded and panics.
func PutOwner(e *codec.Encoder, owner types.Owner) {
	switch o := owner.(type) {
	case types.AccountOwner:
		e.PutU8(ownerTagAccount)
		putAccountID(e, o.Account)
	case types.NFTOwner:
		e.PutU8(ownerTagNFT)
		e.PutU32(uint32(o.CollectionID))
		e.PutU32(uint32(o.NftID))
	default:
		panic(fmt.Sprintf("unsupported owner %T", owner))
	}
}

func DecodeOwner(d *codec.Decoder) types.Owner {
	switch tag := d.U8(); tag {
	case ownerTagAccount:
		return types.AccountOwner{Account: accountID(d)}
	case ownerTagNFT:
		c := types.CollectionID(d.U32())
		n := types.NftID(d.U32())
		return types.NFTOwner{CollectionID: c, NftID: n}
	default:
		d.Fail(fmt.Errorf("%w: owner %d", codec.ErrInvalidTag, tag))
		return nil
	}
}

func putMintParams(e *codec.Encoder, p types.MintParams) {
	e.PutU32(uint32(p.CollectionID))
	e.PutOption(p.RoyaltyRecipient != nil, func(e *codec.Encoder) { putAccountID(e, *p.RoyaltyRecipient) })
	e.PutOption(p.Royalty != nil, func(e *codec.Encoder) { e.PutU8(*p.Royalty) })
	e.PutBytes(p.Metadata)
	e.PutBool(p.Transferable)
	e.PutOption(p.Resource != nil, func(e *codec.Encoder) { putResourceSeed(e, *p.Resource) })
}

func mintParams(d *codec.Decoder) types.MintParams {
	var p types.MintParams
	p.CollectionID = types.CollectionID(d.U32())
	if d.Option() {
		recipient := accountID(d)
		p.RoyaltyRecipient = &recipient
	}
	if d.Option() {
		p.Royalty = types.Uint8Ptr(d.U8())
	}
	p.Metadata = d.Bytes()
	p.Transferable = d.Bool()
	if d.Option() {
		seed := resourceSeed(d)
		p.Resource = &seed
	}
	return p
}

// The seed is ((metadata, properties), priority, Option<(base_id, slot_id)>).
func putResourceSeed(e *codec.Encoder, s types.ResourceSeed) {
	e.PutBytes(s.Metadata)
	e.PutBytes(s.Properties)
	e.PutU32(s.Priority)
	putEquip(e, s.Equip)
}

func resourceSeed(d *codec.Decoder) types.ResourceSeed {
	var s types.ResourceSeed
	s.Metadata = d.Bytes()
	s.Properties = d.Bytes()
	s.Priority = d.U32()
	s.Equip = equip(d)
	return s
}

func putEquip(e *codec.Encoder, b *types.EquipBinding) {
	e.PutOption(b != nil, func(e *codec.Encoder) {
		e.PutU32(uint32(b.BaseID))
		e.PutU32(uint32(b.SlotID))
	})
}

func equip(d *codec.Decoder) *types.EquipBinding {
	if !d.Option() {
		return nil
	}
	b := types.EquipBinding{BaseID: types.BaseID(d.U32())}
	b.SlotID = types.SlotID(d.U32())
	return &b
}

func PutCollectionInfo(e *codec.Encoder, info types.CollectionInfo) {
	putAccountID(e, info.Issuer)
	e.PutBytes(info.Metadata)
	e.PutOption(info.Max != nil, func(e *codec.Encoder) { e.PutU32(*info.Max) })
	e.PutBytes(info.Symbol)
	e.PutU32(info.NftsCount)
}

func DecodeCollectionInfo(d *codec.Decoder) types.CollectionInfo {
	var info types.CollectionInfo
	info.Issuer = accountID(d)
	info.Metadata = d.Bytes()
	if d.Option() {
		info.Max = types.Uint32Ptr(d.U32())
	}
	info.Symbol = d.Bytes()
	info.NftsCount = d.U32()
	return info
}

func PutResourceInfo(e *codec.Encoder, info types.ResourceInfo) {
	e.PutU32(uint32(info.ID))
	e.PutU32(info.Priority)
	e.PutBytes(info.Metadata)
	e.PutBytes(info.Properties)
	putEquip(e, info.Equip)
}

func DecodeResourceInfo(d *codec.Decoder) types.ResourceInfo {
	var info types.ResourceInfo
	info.ID = types.ResourceID(d.U32())
	info.Priority = d.U32()
	info.Metadata = d.Bytes()
	info.Properties = d.Bytes()
	info.Equip = equip(d)
	return info
}

// EncodeOk builds an Ok(value) result. A nil write encodes Ok(()).
func EncodeOk(write func(*codec.Encoder)) []byte {
	e := codec.NewEncoder()
	e.PutU8(resultTagOk)
	if write != nil {
		write(e)
	}
	return e.Bytes()
}

// EncodeErr builds Err(RmrkError::ErrorCode(Failed)).
func EncodeErr() []byte {
	return []byte{resultTagErr, rmrkErrorTagErrorCode, rmrkErrorCodeFailed}
}

// EncodeValue builds the output of a bare-shaped call.
func EncodeValue(write func(*codec.Encoder)) []byte {
	e := codec.NewEncoder()
	write(e)
	return e.Bytes()
}

// decodeResult reads the Result tag. For Err it consumes the error value and returns ErrFailed; an error
// value that is not ErrorCode(Failed) is recorded as a decode failure.
func decodeResult(d *codec.Decoder) error {
	switch tag := d.U8(); tag {
	case resultTagOk:
		return nil
	case resultTagErr:
		if variant := d.U8(); variant != rmrkErrorTagErrorCode {
			d.Fail(fmt.Errorf("%w: rmrk error %d", codec.ErrInvalidTag, variant))
		}
		if code := d.U8(); code != rmrkErrorCodeFailed {
			d.Fail(fmt.Errorf("%w: rmrk error code %d", codec.ErrInvalidTag, code))
		}
		return ErrFailed
	default:
		d.Fail(fmt.Errorf("%w: result %d", codec.ErrInvalidTag, tag))
		return nil
	}
}
