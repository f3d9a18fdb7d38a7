package sql_db

import (
	"context"
	"database/sql"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/pkg/errors"
)

const (
	selectCounter = `SELECT value FROM rmrk_counters WHERE name = $1`

	selectCollection = `SELECT id, issuer, metadata, max_nfts, symbol, nfts_count, next_nft_id
		FROM rmrk_collections WHERE id = $1`

	selectCollections = `SELECT id, issuer, metadata, max_nfts, symbol, nfts_count, next_nft_id
		FROM rmrk_collections ORDER BY id ASC`

	selectNFT = `SELECT collection_id, nft_id, owner_account, owner_collection_id, owner_nft_id, royalty_recipient,
		royalty, metadata, transferable, locked, next_resource_id
		FROM rmrk_nfts WHERE collection_id = $1 AND nft_id = $2`

	selectNFTs = `SELECT collection_id, nft_id, owner_account, owner_collection_id, owner_nft_id, royalty_recipient,
		royalty, metadata, transferable, locked, next_resource_id
		FROM rmrk_nfts ORDER BY collection_id ASC, nft_id ASC`

	selectChildren = `SELECT collection_id, nft_id FROM rmrk_nfts
		WHERE owner_collection_id = $1 AND owner_nft_id = $2 ORDER BY collection_id ASC, nft_id ASC`

	selectResource = `SELECT collection_id, nft_id, resource_id, priority, metadata, properties, equip_base_id, equip_slot_id
		FROM rmrk_resources WHERE collection_id = $1 AND nft_id = $2 AND resource_id = $3`

	selectResources = `SELECT collection_id, nft_id, resource_id, priority, metadata, properties, equip_base_id, equip_slot_id
		FROM rmrk_resources WHERE collection_id = $1 AND nft_id = $2 ORDER BY resource_id ASC`
)

const collectionIndexCounter = "collection_index"

func (tx *DbTx) CollectionIndex(ctx context.Context) (types.CollectionID, error) {
	var value int64
	if err := tx.GetContext(ctx, &value, selectCounter, collectionIndexCounter); err != nil {
		return 0, errors.Wrap(err, "failed to read collection index")
	}
	return types.CollectionID(value), nil
}

func (tx *DbTx) GetCollection(ctx context.Context, id types.CollectionID) (types.Collection, bool, error) {
	var row collectionRow
	err := tx.GetContext(ctx, &row, selectCollection, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Collection{}, false, nil
	}
	if err != nil {
		return types.Collection{}, false, errors.Wrapf(err, "failed to get collection %d", id)
	}
	c, err := row.toCollection()
	return c, err == nil, err
}

func (tx *DbTx) ListCollections(ctx context.Context) ([]types.Collection, error) {
	rows := []collectionRow{}
	if err := tx.SelectContext(ctx, &rows, selectCollections); err != nil {
		return nil, errors.Wrap(err, "failed to list collections")
	}
	out := make([]types.Collection, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCollection()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (tx *DbTx) GetNFT(ctx context.Context, key types.NFTKey) (types.NFT, bool, error) {
	var row nftRow
	err := tx.GetContext(ctx, &row, selectNFT, int64(key.CollectionID), int64(key.NftID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.NFT{}, false, nil
	}
	if err != nil {
		return types.NFT{}, false, errors.Wrapf(err, "failed to get nft %s", key)
	}
	n, err := row.toNFT()
	return n, err == nil, err
}

func (tx *DbTx) ListNFTs(ctx context.Context) ([]types.NFT, error) {
	rows := []nftRow{}
	if err := tx.SelectContext(ctx, &rows, selectNFTs); err != nil {
		return nil, errors.Wrap(err, "failed to list nfts")
	}
	out := make([]types.NFT, 0, len(rows))
	for _, row := range rows {
		n, err := row.toNFT()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (tx *DbTx) Children(ctx context.Context, key types.NFTKey) ([]types.NFTKey, error) {
	var rows []struct {
		CollectionID int64 `db:"collection_id"`
		NftID        int64 `db:"nft_id"`
	}
	if err := tx.SelectContext(ctx, &rows, selectChildren, int64(key.CollectionID), int64(key.NftID)); err != nil {
		return nil, errors.Wrapf(err, "failed to list children of %s", key)
	}
	var out []types.NFTKey
	for _, row := range rows {
		out = append(out, types.NFTKey{CollectionID: types.CollectionID(row.CollectionID), NftID: types.NftID(row.NftID)})
	}
	return out, nil
}

func (tx *DbTx) GetResource(ctx context.Context, key types.NFTKey, id types.ResourceID) (types.Resource, bool, error) {
	var row resourceRow
	err := tx.GetContext(ctx, &row, selectResource, int64(key.CollectionID), int64(key.NftID), int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Resource{}, false, nil
	}
	if err != nil {
		return types.Resource{}, false, errors.Wrapf(err, "failed to get resource %d of %s", id, key)
	}
	return row.toResource(), true, nil
}

func (tx *DbTx) ListResources(ctx context.Context, key types.NFTKey) ([]types.Resource, error) {
	rows := []resourceRow{}
	if err := tx.SelectContext(ctx, &rows, selectResources, int64(key.CollectionID), int64(key.NftID)); err != nil {
		return nil, errors.Wrapf(err, "failed to list resources of %s", key)
	}
	var out []types.Resource
	for _, row := range rows {
		out = append(out, row.toResource())
	}
	return out, nil
}
