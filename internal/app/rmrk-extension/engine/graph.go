package engine

import (
	"context"
	"fmt"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
)

// lineage is the result of walking the owner chain of an NFT up to its account root.
type lineage struct {
	root types.AccountID
	// ancestors lists the NFT owners, nearest first.
	ancestors []types.NFTKey
}

func (l lineage) depth() int {
	return len(l.ancestors)
}

func (l lineage) contains(key types.NFTKey) bool {
	for _, a := range l.ancestors {
		if a == key {
			return true
		}
	}
	return false
}

// walkLineage follows owners from nft up to the owning account. The walk stops after MaxNestingDepthLimit
// owners so a corrupt graph with a cycle cannot loop forever. A chain deeper than the configured depth is
// not corrupt: lowering the depth only restricts new nesting.
func walkLineage(ctx context.Context, tx Tx, nft types.NFT) (lineage, error) {
	var l lineage
	owner := nft.Owner
	for {
		switch o := owner.(type) {
		case types.AccountOwner:
			l.root = o.Account
			return l, nil
		case types.NFTOwner:
			if len(l.ancestors) >= MaxNestingDepthLimit {
				return l, fmt.Errorf("%w: owner chain of %s longer than %d", ErrCorruptGraph, nft.NFTKey, MaxNestingDepthLimit)
			}
			parent, found, err := tx.GetNFT(ctx, o.Key())
			if err != nil {
				return l, err
			}
			if !found {
				return l, fmt.Errorf("%w: %s owned by missing nft %s", ErrCorruptGraph, nft.NFTKey, o.Key())
			}
			l.ancestors = append(l.ancestors, o.Key())
			owner = parent.Owner
		default:
			return l, fmt.Errorf("%w: %s has no owner", ErrCorruptGraph, nft.NFTKey)
		}
	}
}

// subtree is an NFT and all of its descendants in breadth-first order, with the height below the root.
type subtree struct {
	nodes  []types.NFT
	height int
}

// collectSubtree gathers root and its descendants. It stops with ErrBurnBudgetExceeded as soon as more
// than budget nodes are seen; a negative budget means unbounded.
func collectSubtree(ctx context.Context, tx Tx, root types.NFT, budget int) (subtree, error) {
	st := subtree{nodes: []types.NFT{root}}
	level := []types.NFTKey{root.NFTKey}
	seen := map[types.NFTKey]bool{root.NFTKey: true}
	if budget == 0 {
		return st, ErrBurnBudgetExceeded
	}

	for len(level) > 0 {
		var next []types.NFTKey
		for _, key := range level {
			children, err := tx.Children(ctx, key)
			if err != nil {
				return st, err
			}
			for _, child := range children {
				if seen[child] {
					return st, fmt.Errorf("%w: %s reached twice below %s", ErrCorruptGraph, child, root.NFTKey)
				}
				seen[child] = true

				nft, found, err := tx.GetNFT(ctx, child)
				if err != nil {
					return st, err
				}
				if !found {
					return st, fmt.Errorf("%w: child %s of %s missing", ErrCorruptGraph, child, key)
				}
				st.nodes = append(st.nodes, nft)
				if budget >= 0 && len(st.nodes) > budget {
					return st, ErrBurnBudgetExceeded
				}
				next = append(next, child)
			}
		}
		if len(next) > 0 {
			st.height++
		}
		level = next
	}
	return st, nil
}
