package types

import "fmt"

type CollectionID uint32

type NftID uint32

type ResourceID uint32

type BaseID uint32

type SlotID uint32

// NFTKey addresses a single NFT.
type NFTKey struct {
	CollectionID CollectionID
	NftID        NftID
}

func (k NFTKey) String() string {
	return fmt.Sprintf("%d/%d", k.CollectionID, k.NftID)
}

// Owner is either an AccountOwner or an NFTOwner. The interface is sealed, so a value is always exactly one
// of the two variants; a nil Owner is never a valid owner.
type Owner interface {
	isOwner()
	String() string
}

// AccountOwner is an NFT owned directly by an account.
type AccountOwner struct {
	Account AccountID
}

func (AccountOwner) isOwner() {}

func (o AccountOwner) String() string {
	return "account:" + o.Account.String()
}

// NFTOwner is an NFT nested inside another NFT.
type NFTOwner struct {
	CollectionID CollectionID
	NftID        NftID
}

func (NFTOwner) isOwner() {}

func (o NFTOwner) String() string {
	return "nft:" + o.Key().String()
}

func (o NFTOwner) Key() NFTKey {
	return NFTKey{CollectionID: o.CollectionID, NftID: o.NftID}
}

func OwnerOfNFT(key NFTKey) NFTOwner {
	return NFTOwner{CollectionID: key.CollectionID, NftID: key.NftID}
}
