package sql_db

import (
	"context"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/pkg/errors"
)

const (
	updateCounter = `UPDATE rmrk_counters SET value = $1 WHERE name = $2`

	upsertCollection = `INSERT INTO rmrk_collections (id, issuer, metadata, max_nfts, symbol, nfts_count, next_nft_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET issuer = excluded.issuer, metadata = excluded.metadata,
		max_nfts = excluded.max_nfts, symbol = excluded.symbol, nfts_count = excluded.nfts_count,
		next_nft_id = excluded.next_nft_id`

	deleteCollection = `DELETE FROM rmrk_collections WHERE id = $1`

	upsertNFT = `INSERT INTO rmrk_nfts (collection_id, nft_id, owner_account, owner_collection_id, owner_nft_id,
		royalty_recipient, royalty, metadata, transferable, locked, next_resource_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (collection_id, nft_id) DO UPDATE SET owner_account = excluded.owner_account,
		owner_collection_id = excluded.owner_collection_id, owner_nft_id = excluded.owner_nft_id,
		royalty_recipient = excluded.royalty_recipient, royalty = excluded.royalty, metadata = excluded.metadata,
		transferable = excluded.transferable, locked = excluded.locked, next_resource_id = excluded.next_resource_id`

	deleteNFT = `DELETE FROM rmrk_nfts WHERE collection_id = $1 AND nft_id = $2`

	upsertResource = `INSERT INTO rmrk_resources (collection_id, nft_id, resource_id, priority, metadata, properties,
		equip_base_id, equip_slot_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (collection_id, nft_id, resource_id) DO UPDATE SET priority = excluded.priority,
		metadata = excluded.metadata, properties = excluded.properties, equip_base_id = excluded.equip_base_id,
		equip_slot_id = excluded.equip_slot_id`

	deleteResources = `DELETE FROM rmrk_resources WHERE collection_id = $1 AND nft_id = $2`
)

func (tx *DbTx) SetCollectionIndex(ctx context.Context, next types.CollectionID) error {
	_, err := tx.ExecContext(ctx, updateCounter, int64(next), collectionIndexCounter)
	return errors.Wrap(err, "failed to update collection index")
}

func (tx *DbTx) PutCollection(ctx context.Context, collection types.Collection) error {
	row := newCollectionRow(collection)
	_, err := tx.ExecContext(ctx, upsertCollection,
		row.ID, row.Issuer, row.Metadata, row.MaxNfts, row.Symbol, row.NftsCount, row.NextNftID)
	return errors.Wrapf(err, "failed to save collection %d", collection.ID)
}

func (tx *DbTx) DeleteCollection(ctx context.Context, id types.CollectionID) error {
	_, err := tx.ExecContext(ctx, deleteCollection, int64(id))
	return errors.Wrapf(err, "failed to delete collection %d", id)
}

func (tx *DbTx) PutNFT(ctx context.Context, nft types.NFT) error {
	row, err := newNFTRow(nft)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, upsertNFT,
		row.CollectionID, row.NftID, row.OwnerAccount, row.OwnerCollectionID, row.OwnerNftID,
		row.RoyaltyRecipient, row.Royalty, row.Metadata, row.Transferable, row.Locked, row.NextResourceID)
	return errors.Wrapf(err, "failed to save nft %s", nft.NFTKey)
}

func (tx *DbTx) DeleteNFT(ctx context.Context, key types.NFTKey) error {
	_, err := tx.ExecContext(ctx, deleteNFT, int64(key.CollectionID), int64(key.NftID))
	return errors.Wrapf(err, "failed to delete nft %s", key)
}

func (tx *DbTx) PutResource(ctx context.Context, resource types.Resource) error {
	row := newResourceRow(resource)
	_, err := tx.ExecContext(ctx, upsertResource,
		row.CollectionID, row.NftID, row.ResourceID, row.Priority, row.Metadata, row.Properties,
		row.EquipBaseID, row.EquipSlotID)
	return errors.Wrapf(err, "failed to save resource %d of %s", resource.ID, resource.NFTKey)
}

func (tx *DbTx) DeleteResources(ctx context.Context, key types.NFTKey) error {
	_, err := tx.ExecContext(ctx, deleteResources, int64(key.CollectionID), int64(key.NftID))
	return errors.Wrapf(err, "failed to delete resources of %s", key)
}
