package sql_db

import (
	"database/sql"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/pkg/errors"
)

type collectionRow struct {
	ID        int64         `db:"id"`
	Issuer    string        `db:"issuer"`
	Metadata  []byte        `db:"metadata"`
	MaxNfts   sql.NullInt64 `db:"max_nfts"`
	Symbol    []byte        `db:"symbol"`
	NftsCount int64         `db:"nfts_count"`
	NextNftID int64         `db:"next_nft_id"`
}

func newCollectionRow(c types.Collection) collectionRow {
	row := collectionRow{
		ID:        int64(c.ID),
		Issuer:    c.Issuer.String(),
		Metadata:  nonNil(c.Metadata),
		Symbol:    nonNil(c.Symbol),
		NftsCount: int64(c.NftsCount),
		NextNftID: int64(c.NextNftID),
	}
	if c.Max != nil {
		row.MaxNfts = sql.NullInt64{Int64: int64(*c.Max), Valid: true}
	}
	return row
}

func (r collectionRow) toCollection() (types.Collection, error) {
	issuer, err := types.ParseAccountID(r.Issuer)
	if err != nil {
		return types.Collection{}, errors.Wrapf(err, "collection %d issuer", r.ID)
	}
	c := types.Collection{
		ID: types.CollectionID(r.ID),
		CollectionInfo: types.CollectionInfo{
			Issuer:    issuer,
			Metadata:  r.Metadata,
			Symbol:    r.Symbol,
			NftsCount: uint32(r.NftsCount),
		},
		NextNftID: types.NftID(r.NextNftID),
	}
	if r.MaxNfts.Valid {
		c.Max = types.Uint32Ptr(uint32(r.MaxNfts.Int64))
	}
	return c, nil
}

type nftRow struct {
	CollectionID      int64          `db:"collection_id"`
	NftID             int64          `db:"nft_id"`
	OwnerAccount      sql.NullString `db:"owner_account"`
	OwnerCollectionID sql.NullInt64  `db:"owner_collection_id"`
	OwnerNftID        sql.NullInt64  `db:"owner_nft_id"`
	RoyaltyRecipient  sql.NullString `db:"royalty_recipient"`
	Royalty           sql.NullInt64  `db:"royalty"`
	Metadata          []byte         `db:"metadata"`
	Transferable      bool           `db:"transferable"`
	Locked            bool           `db:"locked"`
	NextResourceID    int64          `db:"next_resource_id"`
}

func newNFTRow(n types.NFT) (nftRow, error) {
	row := nftRow{
		CollectionID:   int64(n.CollectionID),
		NftID:          int64(n.NftID),
		Metadata:       nonNil(n.Metadata),
		Transferable:   n.Transferable,
		Locked:         n.Locked,
		NextResourceID: int64(n.NextResourceID),
	}
	switch o := n.Owner.(type) {
	case types.AccountOwner:
		row.OwnerAccount = sql.NullString{String: o.Account.String(), Valid: true}
	case types.NFTOwner:
		row.OwnerCollectionID = sql.NullInt64{Int64: int64(o.CollectionID), Valid: true}
		row.OwnerNftID = sql.NullInt64{Int64: int64(o.NftID), Valid: true}
	default:
		return row, errors.Errorf("nft %s has no owner", n.NFTKey)
	}
	if n.RoyaltyRecipient != nil {
		row.RoyaltyRecipient = sql.NullString{String: n.RoyaltyRecipient.String(), Valid: true}
	}
	if n.Royalty != nil {
		row.Royalty = sql.NullInt64{Int64: int64(*n.Royalty), Valid: true}
	}
	return row, nil
}

func (r nftRow) toNFT() (types.NFT, error) {
	n := types.NFT{
		NFTKey: types.NFTKey{CollectionID: types.CollectionID(r.CollectionID), NftID: types.NftID(r.NftID)},
		NFTInfo: types.NFTInfo{
			Metadata:     r.Metadata,
			Transferable: r.Transferable,
		},
		Locked:         r.Locked,
		NextResourceID: types.ResourceID(r.NextResourceID),
	}

	switch {
	case r.OwnerAccount.Valid:
		account, err := types.ParseAccountID(r.OwnerAccount.String)
		if err != nil {
			return n, errors.Wrapf(err, "nft %s owner", n.NFTKey)
		}
		n.Owner = types.AccountOwner{Account: account}
	case r.OwnerCollectionID.Valid && r.OwnerNftID.Valid:
		n.Owner = types.NFTOwner{CollectionID: types.CollectionID(r.OwnerCollectionID.Int64), NftID: types.NftID(r.OwnerNftID.Int64)}
	default:
		return n, errors.Errorf("nft %s has no owner", n.NFTKey)
	}

	if r.RoyaltyRecipient.Valid {
		recipient, err := types.ParseAccountID(r.RoyaltyRecipient.String)
		if err != nil {
			return n, errors.Wrapf(err, "nft %s royalty recipient", n.NFTKey)
		}
		n.RoyaltyRecipient = &recipient
	}
	if r.Royalty.Valid {
		n.Royalty = types.Uint8Ptr(uint8(r.Royalty.Int64))
	}
	return n, nil
}

type resourceRow struct {
	CollectionID int64         `db:"collection_id"`
	NftID        int64         `db:"nft_id"`
	ResourceID   int64         `db:"resource_id"`
	Priority     int64         `db:"priority"`
	Metadata     []byte        `db:"metadata"`
	Properties   []byte        `db:"properties"`
	EquipBaseID  sql.NullInt64 `db:"equip_base_id"`
	EquipSlotID  sql.NullInt64 `db:"equip_slot_id"`
}

func newResourceRow(r types.Resource) resourceRow {
	row := resourceRow{
		CollectionID: int64(r.CollectionID),
		NftID:        int64(r.NftID),
		ResourceID:   int64(r.ID),
		Priority:     int64(r.Priority),
		Metadata:     nonNil(r.Metadata),
		Properties:   nonNil(r.Properties),
	}
	if r.Equip != nil {
		row.EquipBaseID = sql.NullInt64{Int64: int64(r.Equip.BaseID), Valid: true}
		row.EquipSlotID = sql.NullInt64{Int64: int64(r.Equip.SlotID), Valid: true}
	}
	return row
}

func (r resourceRow) toResource() types.Resource {
	res := types.Resource{
		NFTKey: types.NFTKey{CollectionID: types.CollectionID(r.CollectionID), NftID: types.NftID(r.NftID)},
		ResourceInfo: types.ResourceInfo{
			ID:         types.ResourceID(r.ResourceID),
			Priority:   uint32(r.Priority),
			Metadata:   r.Metadata,
			Properties: r.Properties,
		},
	}
	if r.EquipBaseID.Valid && r.EquipSlotID.Valid {
		res.Equip = &types.EquipBinding{BaseID: types.BaseID(r.EquipBaseID.Int64), SlotID: types.SlotID(r.EquipSlotID.Int64)}
	}
	return res
}

// nonNil keeps empty blobs out of NULL: the sqlite driver binds a nil slice as NULL.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
