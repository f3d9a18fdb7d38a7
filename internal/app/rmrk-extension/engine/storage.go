package engine

import (
	"context"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
)

// Storage runs fn in one transaction. If fn returns an error nothing it wrote is kept.
type Storage interface {
	ExecuteTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the record-level view of the engine state inside a transaction. Getters report absence with
// found == false, never with an error.
type Tx interface {
	CollectionIndex(ctx context.Context) (types.CollectionID, error)
	SetCollectionIndex(ctx context.Context, next types.CollectionID) error

	GetCollection(ctx context.Context, id types.CollectionID) (types.Collection, bool, error)
	PutCollection(ctx context.Context, collection types.Collection) error
	DeleteCollection(ctx context.Context, id types.CollectionID) error
	ListCollections(ctx context.Context) ([]types.Collection, error)

	GetNFT(ctx context.Context, key types.NFTKey) (types.NFT, bool, error)
	PutNFT(ctx context.Context, nft types.NFT) error
	DeleteNFT(ctx context.Context, key types.NFTKey) error
	// Children lists the NFTs directly owned by key, ordered by key.
	Children(ctx context.Context, key types.NFTKey) ([]types.NFTKey, error)
	ListNFTs(ctx context.Context) ([]types.NFT, error)

	GetResource(ctx context.Context, key types.NFTKey, id types.ResourceID) (types.Resource, bool, error)
	PutResource(ctx context.Context, resource types.Resource) error
	ListResources(ctx context.Context, key types.NFTKey) ([]types.Resource, error)
	DeleteResources(ctx context.Context, key types.NFTKey) error
}
