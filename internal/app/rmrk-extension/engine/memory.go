package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
)

type resourceKey struct {
	nft types.NFTKey
	id  types.ResourceID
}

type memoryState struct {
	collectionIndex types.CollectionID
	collections     map[types.CollectionID]types.Collection
	nfts            map[types.NFTKey]types.NFT
	resources       map[resourceKey]types.Resource
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		collectionIndex: s.collectionIndex,
		collections:     make(map[types.CollectionID]types.Collection, len(s.collections)),
		nfts:            make(map[types.NFTKey]types.NFT, len(s.nfts)),
		resources:       make(map[resourceKey]types.Resource, len(s.resources)),
	}
	for k, v := range s.collections {
		out.collections[k] = v
	}
	for k, v := range s.nfts {
		out.nfts[k] = v
	}
	for k, v := range s.resources {
		out.resources[k] = v
	}
	return out
}

// MemoryStorage keeps the engine state in process. Every transaction works on a staged copy that replaces
// the committed state only when the callback succeeds; transactions are serialized.
type MemoryStorage struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{state: &memoryState{
		collections: map[types.CollectionID]types.Collection{},
		nfts:        map[types.NFTKey]types.NFT{},
		resources:   map[resourceKey]types.Resource{},
	}}
}

func (m *MemoryStorage) ExecuteTx(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.state.clone()
	if err := fn(&memoryTx{state: staged}); err != nil {
		return err
	}
	m.state = staged
	return nil
}

type memoryTx struct {
	state *memoryState
}

func (tx *memoryTx) CollectionIndex(context.Context) (types.CollectionID, error) {
	return tx.state.collectionIndex, nil
}

func (tx *memoryTx) SetCollectionIndex(_ context.Context, next types.CollectionID) error {
	tx.state.collectionIndex = next
	return nil
}

func (tx *memoryTx) GetCollection(_ context.Context, id types.CollectionID) (types.Collection, bool, error) {
	c, ok := tx.state.collections[id]
	return c, ok, nil
}

func (tx *memoryTx) PutCollection(_ context.Context, collection types.Collection) error {
	tx.state.collections[collection.ID] = collection
	return nil
}

func (tx *memoryTx) DeleteCollection(_ context.Context, id types.CollectionID) error {
	delete(tx.state.collections, id)
	return nil
}

func (tx *memoryTx) ListCollections(context.Context) ([]types.Collection, error) {
	out := make([]types.Collection, 0, len(tx.state.collections))
	for _, c := range tx.state.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memoryTx) GetNFT(_ context.Context, key types.NFTKey) (types.NFT, bool, error) {
	n, ok := tx.state.nfts[key]
	return n, ok, nil
}

func (tx *memoryTx) PutNFT(_ context.Context, nft types.NFT) error {
	tx.state.nfts[nft.NFTKey] = nft
	return nil
}

func (tx *memoryTx) DeleteNFT(_ context.Context, key types.NFTKey) error {
	delete(tx.state.nfts, key)
	return nil
}

func (tx *memoryTx) Children(_ context.Context, key types.NFTKey) ([]types.NFTKey, error) {
	var out []types.NFTKey
	for k, n := range tx.state.nfts {
		if parent, ok := n.Owner.(types.NFTOwner); ok && parent.Key() == key {
			out = append(out, k)
		}
	}
	sortKeys(out)
	return out, nil
}

func (tx *memoryTx) ListNFTs(context.Context) ([]types.NFT, error) {
	out := make([]types.NFT, 0, len(tx.state.nfts))
	for _, n := range tx.state.nfts {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].NFTKey, out[j].NFTKey) })
	return out, nil
}

func (tx *memoryTx) GetResource(_ context.Context, key types.NFTKey, id types.ResourceID) (types.Resource, bool, error) {
	r, ok := tx.state.resources[resourceKey{nft: key, id: id}]
	return r, ok, nil
}

func (tx *memoryTx) PutResource(_ context.Context, resource types.Resource) error {
	tx.state.resources[resourceKey{nft: resource.NFTKey, id: resource.ID}] = resource
	return nil
}

func (tx *memoryTx) ListResources(_ context.Context, key types.NFTKey) ([]types.Resource, error) {
	var out []types.Resource
	for k, r := range tx.state.resources {
		if k.nft == key {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memoryTx) DeleteResources(_ context.Context, key types.NFTKey) error {
	for k := range tx.state.resources {
		if k.nft == key {
			delete(tx.state.resources, k)
		}
	}
	return nil
}

func keyLess(a, b types.NFTKey) bool {
	if a.CollectionID != b.CollectionID {
		return a.CollectionID < b.CollectionID
	}
	return a.NftID < b.NftID
}

func sortKeys(keys []types.NFTKey) {
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
}
