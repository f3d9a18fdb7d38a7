package types

const MaxRoyaltyPercent = 100

// CollectionInfo is the collection record as the extension returns it.
type CollectionInfo struct {
	Issuer    AccountID
	Metadata  []byte
	Max       *uint32
	Symbol    []byte
	NftsCount uint32
}

// NFTInfo is the NFT record as the engine keeps it.
type NFTInfo struct {
	Owner            Owner
	RoyaltyRecipient *AccountID
	Royalty          *uint8
	Metadata         []byte
	Transferable     bool
}

// EquipBinding declares a resource equippable into one slot of one base.
type EquipBinding struct {
	BaseID BaseID
	SlotID SlotID
}

type ResourceInfo struct {
	ID         ResourceID
	Priority   uint32
	Metadata   []byte
	Properties []byte
	Equip      *EquipBinding
}

// ResourceSeed is the optional resource attached at mint time.
type ResourceSeed struct {
	Metadata   []byte
	Properties []byte
	Priority   uint32
	Equip      *EquipBinding
}

// MintParams are the mint arguments shared by both owner forms.
type MintParams struct {
	CollectionID     CollectionID
	RoyaltyRecipient *AccountID
	Royalty          *uint8
	Metadata         []byte
	Transferable     bool
	Resource         *ResourceSeed
}

// Collection is the stored collection row: the public info plus the id counter for its NFTs.
type Collection struct {
	ID CollectionID
	CollectionInfo
	NextNftID NftID
}

// NFT is the stored NFT row.
type NFT struct {
	NFTKey
	NFTInfo
	Locked         bool
	NextResourceID ResourceID
}

type Resource struct {
	NFTKey
	ResourceInfo
}

// HasCapacity reports whether one more NFT fits in the collection.
func (c CollectionInfo) HasCapacity() bool {
	return c.Max == nil || c.NftsCount < *c.Max
}

func Uint32Ptr(v uint32) *uint32 {
	return &v
}

func Uint8Ptr(v uint8) *uint8 {
	return &v
}
