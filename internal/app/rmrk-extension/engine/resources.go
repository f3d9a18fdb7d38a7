package engine

import (
	"context"
	"sort"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/rs/zerolog/log"
)

// SortResources orders resources for display: lower priority value first, ties by resource id.
func SortResources(resources []types.ResourceInfo) {
	sort.SliceStable(resources, func(i, j int) bool {
		if resources[i].Priority != resources[j].Priority {
			return resources[i].Priority < resources[j].Priority
		}
		return resources[i].ID < resources[j].ID
	})
}

func (e *Engine) resource(ctx context.Context, key types.NFTKey, id types.ResourceID) (resource types.Resource, found bool, err error) {
	err = e.storage.ExecuteTx(ctx, func(tx Tx) error {
		resource, found, err = tx.GetResource(ctx, key, id)
		return err
	})
	return resource, found, err
}

// Priority returns 0 for a resource that does not exist.
func (e *Engine) Priority(ctx context.Context, key types.NFTKey, id types.ResourceID) (uint32, error) {
	resource, _, err := e.resource(ctx, key, id)
	return resource.Priority, err
}

func (e *Engine) Resource(ctx context.Context, key types.NFTKey, id types.ResourceID) (types.ResourceInfo, error) {
	resource, found, err := e.resource(ctx, key, id)
	if err != nil {
		return types.ResourceInfo{}, err
	}
	if !found {
		return types.ResourceInfo{}, ErrResourceNotFound
	}
	return resource.ResourceInfo, nil
}

func (e *Engine) Properties(ctx context.Context, key types.NFTKey, id types.ResourceID) ([]byte, error) {
	info, err := e.Resource(ctx, key, id)
	if err != nil {
		return nil, err
	}
	return info.Properties, nil
}

// Resources lists the resources of an NFT in display order.
func (e *Engine) Resources(ctx context.Context, key types.NFTKey) ([]types.ResourceInfo, error) {
	var out []types.ResourceInfo
	err := e.storage.ExecuteTx(ctx, func(tx Tx) error {
		if _, found, err := tx.GetNFT(ctx, key); err != nil {
			return err
		} else if !found {
			return ErrNFTNotFound
		}
		resources, err := tx.ListResources(ctx, key)
		if err != nil {
			return err
		}
		for _, r := range resources {
			out = append(out, r.ResourceInfo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortResources(out)
	return out, nil
}

// EquippableBases succeeds when any resource of the NFT is bound to base.
func (e *Engine) EquippableBases(ctx context.Context, key types.NFTKey, base types.BaseID) error {
	resources, err := e.Resources(ctx, key)
	if err != nil {
		return err
	}
	for _, r := range resources {
		if r.Equip != nil && r.Equip.BaseID == base {
			return nil
		}
	}
	return ErrNotEquippable
}

// EquippableSlots succeeds when the resource is bound to exactly (base, slot).
func (e *Engine) EquippableSlots(ctx context.Context, key types.NFTKey, id types.ResourceID, base types.BaseID, slot types.SlotID) error {
	info, err := e.Resource(ctx, key, id)
	if err != nil {
		return err
	}
	if info.Equip == nil || info.Equip.BaseID != base || info.Equip.SlotID != slot {
		return ErrNotEquippable
	}
	return nil
}

// Lock reads the lock flag. It never changes it.
func (e *Engine) Lock(ctx context.Context, key types.NFTKey) (bool, error) {
	nft, err := e.NFT(ctx, key)
	if err != nil {
		return false, err
	}
	return nft.Locked, nil
}

// SetLock is the host-side switch for the lock flag; it is not reachable through the opcode table.
func (e *Engine) SetLock(ctx context.Context, key types.NFTKey, locked bool) error {
	err := e.storage.ExecuteTx(ctx, func(tx Tx) error {
		nft, found, err := tx.GetNFT(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			return ErrNFTNotFound
		}
		nft.Locked = locked
		return tx.PutNFT(ctx, nft)
	})
	if err != nil {
		return err
	}

	log.Info().Msgf("nft %s lock set to %t", key, locked)
	return nil
}
