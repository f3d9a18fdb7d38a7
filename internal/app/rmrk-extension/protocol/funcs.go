package protocol

import (
	"fmt"
	"sort"
	"strconv"
)

// FuncID is the numeric opcode of an extension operation.
type FuncID uint32

const (
	FuncNextNftID            FuncID = 3501
	FuncCollectionIndex      FuncID = 3502
	FuncNextResourceID       FuncID = 3503
	FuncCollections          FuncID = 3504
	FuncPriorities           FuncID = 3506
	FuncResources            FuncID = 3508
	FuncEquippableBases      FuncID = 3509
	FuncEquippableSlots      FuncID = 3510
	FuncProperties           FuncID = 3511
	FuncLock                 FuncID = 3512
	FuncMintNFT              FuncID = 3513
	FuncMintNFTDirectlyToNFT FuncID = 3514
	FuncCreateCollection     FuncID = 3515
	FuncBurnNFT              FuncID = 3516
	FuncDestroyCollection    FuncID = 3517
	FuncSend                 FuncID = 3518
)

// 3505 (nfts) and 3507 (children) are reserved and must stay unassigned.
const (
	reservedNfts     FuncID = 3505
	reservedChildren FuncID = 3507
)

// Shape is how the status code and output of a call are interpreted.
type Shape int

const (
	// ShapeBare operations cannot fail: the status is ignored and the output is the raw value.
	ShapeBare Shape = iota
	// ShapeResult operations return Result<T, RmrkError> on status 0 and fail on status 1.
	ShapeResult
)

func (s Shape) String() string {
	switch s {
	case ShapeBare:
		return "bare"
	case ShapeResult:
		return "result"
	default:
		return "unknown"
	}
}

type funcInfo struct {
	name     string
	shape    Shape
	mutating bool
}

var funcTable = map[FuncID]funcInfo{
	FuncNextNftID:            {"next_nft_id", ShapeBare, false},
	FuncCollectionIndex:      {"collection_index", ShapeBare, false},
	FuncNextResourceID:       {"next_resource_id", ShapeBare, false},
	FuncCollections:          {"collections", ShapeResult, false},
	FuncPriorities:           {"priorities", ShapeBare, false},
	FuncResources:            {"resources", ShapeResult, false},
	FuncEquippableBases:      {"equippable_bases", ShapeResult, false},
	FuncEquippableSlots:      {"equippable_slots", ShapeResult, false},
	FuncProperties:           {"properties", ShapeResult, false},
	FuncLock:                 {"lock", ShapeResult, false},
	FuncMintNFT:              {"mint_nft", ShapeResult, true},
	FuncMintNFTDirectlyToNFT: {"mint_nft_directly_to_nft", ShapeResult, true},
	FuncCreateCollection:     {"create_collection", ShapeResult, true},
	FuncBurnNFT:              {"burn_nft", ShapeResult, true},
	FuncDestroyCollection:    {"destroy_collection", ShapeResult, true},
	FuncSend:                 {"send", ShapeResult, true},
}

func (id FuncID) Known() bool {
	_, ok := funcTable[id]
	return ok
}

func (id FuncID) Reserved() bool {
	return id == reservedNfts || id == reservedChildren
}

func (id FuncID) String() string {
	if info, ok := funcTable[id]; ok {
		return info.name
	}
	return "func_" + strconv.FormatUint(uint64(id), 10)
}

func (id FuncID) Shape() Shape {
	return funcTable[id].shape
}

func (id FuncID) Mutating() bool {
	return funcTable[id].mutating
}

// ParseFuncID parses a decimal opcode and rejects anything not in the table.
func ParseFuncID(s string) (FuncID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid func id %q: %w", s, err)
	}
	id := FuncID(v)
	if !id.Known() {
		return 0, fmt.Errorf("unknown func id %d", id)
	}
	return id, nil
}

// Funcs lists every assigned opcode in ascending order.
func Funcs() []FuncID {
	ids := make([]FuncID, 0, len(funcTable))
	for id := range funcTable {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
