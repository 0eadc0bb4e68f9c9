package models

import (
	"fmt"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
)

// Coordinate bounds accepted by Position.Pack without truncation.
const (
	MinHorizontal = -(1 << 25)
	MaxHorizontal = 1<<25 - 1
	MinY          = 0
	MaxY          = 1<<12 - 1
)

const (
	horizontalMask = 1<<26 - 1
	yMask          = 1<<12 - 1
)

// Position is a block coordinate. X and Z use 26 bits each and Y 12 bits
// once packed.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// Pack encodes p as x<<38 | y<<26 | z. Out-of-range components are
// truncated silently; call Validate first when that matters.
func (p Position) Pack() int64 {
	return int64(p.X)<<38 | (int64(p.Y)&yMask)<<26 | int64(p.Z)&horizontalMask
}

// UnpackPosition reverses Pack, sign-extending X and Z.
func UnpackPosition(v int64) Position {
	return Position{
		X: int32(v >> 38),
		Y: int32(v >> 26 & yMask),
		Z: int32(v << 38 >> 38),
	}
}

// Validate reports whether p survives Pack unchanged.
func (p Position) Validate() error {
	if p.X < MinHorizontal || p.X > MaxHorizontal {
		return fmt.Errorf("%w: x=%d", common.ErrorInvalidPosition, p.X)
	}
	if p.Y < MinY || p.Y > MaxY {
		return fmt.Errorf("%w: y=%d", common.ErrorInvalidPosition, p.Y)
	}
	if p.Z < MinHorizontal || p.Z > MaxHorizontal {
		return fmt.Errorf("%w: z=%d", common.ErrorInvalidPosition, p.Z)
	}
	return nil
}
