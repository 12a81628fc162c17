// Package objupdate partially parses SMSG_UPDATE_OBJECT well enough to
// support one quirk: detecting that the bot's own character has moved
// within range of a nearby chair game object, so the orchestrator can
// auto-sit it. It does not attempt a general object-update decode —
// only the movement sub-block and the handful of update-fields needed
// to tell "this is a chair" apart from everything else on the wire.
package objupdate

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/innkeeper-bridge/innkeeper/internal/protocol/wire"
)

// updateTypeValues and updateTypeMovement mirror the wire variant's
// SMSG_UPDATE_OBJECT block-type discriminants.
const (
	updateTypeValues            uint8 = 0
	updateTypeMovement          uint8 = 1
	updateTypeCreateObject      uint8 = 2
	updateTypeCreateObject2     uint8 = 3
	updateTypeOutOfRangeObjects uint8 = 4
	updateTypeNearObjects       uint8 = 5
)

const (
	updateFlagLiving     uint16 = 0x0020
	updateFlagPosition   uint16 = 0x0040

	typeMaskGameObject uint32 = 1 << 3
)

// Position is a 3D world-space point.
type Position struct{ X, Y, Z float32 }

// Distance returns the straight-line distance to other.
func (p Position) Distance(other Position) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	dz := float64(p.Z - other.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ChairCandidate is a nearby game object whose type mask marks it as a
// chair-class object (the wire variant does not name "chair" directly;
// the bot infers it from the object's type mask and proximity).
type ChairCandidate struct {
	GUID     uint64
	Position Position
}

// Snapshot is the subset of an SMSG_UPDATE_OBJECT payload this package
// cares about: the local player's latest position (if present in this
// packet) and any nearby game objects seen along the way.
type Snapshot struct {
	PlayerPosition *Position
	Chairs         []ChairCandidate
}

// chairSitRadius is how close the player must be to a chair candidate
// before the "sit on nearest chair" quirk fires.
const chairSitRadius = 2.0

// Parse walks an SMSG_UPDATE_OBJECT payload's blocks, extracting the
// player's position from any CREATE_OBJECT/CREATE_OBJECT2/MOVEMENT
// block for playerGUID and collecting nearby game-object candidates
// from CREATE_OBJECT blocks.
func Parse(payload []byte, playerGUID uint64) (*Snapshot, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("objupdate: payload empty")
	}
	buf := payload[1:] // block count, unused: we walk until buf is exhausted
	snap := &Snapshot{}

	for len(buf) > 0 {
		blockType := buf[0]
		buf = buf[1:]

		switch blockType {
		case updateTypeValues:
			guid, n, err := wire.ReadPackedGUID(buf)
			if err != nil {
				return snap, nil
			}
			buf = buf[n:]
			consumed, err := skipUpdateFields(buf)
			if err != nil {
				return snap, nil
			}
			buf = buf[consumed:]
			_ = guid

		case updateTypeMovement:
			guid, n, err := wire.ReadPackedGUID(buf)
			if err != nil {
				return snap, nil
			}
			buf = buf[n:]
			pos, consumed, err := parseMovement(buf)
			if err != nil {
				return snap, nil
			}
			buf = buf[consumed:]
			if guid == playerGUID && pos != nil {
				snap.PlayerPosition = pos
			}

		case updateTypeCreateObject, updateTypeCreateObject2:
			guid, n, err := wire.ReadPackedGUID(buf)
			if err != nil {
				return snap, nil
			}
			buf = buf[n:]
			if len(buf) < 1 {
				return snap, nil
			}
			objectTypeID := buf[0]
			buf = buf[1:]

			pos, consumed, err := parseMovement(buf)
			if err != nil {
				return snap, nil
			}
			buf = buf[consumed:]

			fieldsConsumed, err := skipUpdateFields(buf)
			if err != nil {
				return snap, nil
			}
			buf = buf[fieldsConsumed:]

			if guid == playerGUID && pos != nil {
				snap.PlayerPosition = pos
			}
			if objectTypeID == 3 && pos != nil { // TYPEID_GAMEOBJECT
				snap.Chairs = append(snap.Chairs, ChairCandidate{GUID: guid, Position: *pos})
			}

		case updateTypeOutOfRangeObjects, updateTypeNearObjects:
			if len(buf) < 4 {
				return snap, nil
			}
			count := binary.LittleEndian.Uint32(buf)
			buf = buf[4:]
			for i := uint32(0); i < count; i++ {
				_, n, err := wire.ReadPackedGUID(buf)
				if err != nil {
					return snap, nil
				}
				buf = buf[n:]
			}

		default:
			return snap, nil
		}
	}
	return snap, nil
}

// parseMovement reads the movement sub-block following a CREATE_OBJECT/
// MOVEMENT block's update-flags byte: flags(2) + [living-specific
// fields, skipped] + position (x,y,z as float32 LE) when
// updateFlagPosition or updateFlagLiving is set. Returns nil position
// (with correct byte accounting) when neither flag is set.
func parseMovement(buf []byte) (*Position, int, error) {
	if len(buf) < 2 {
		return nil, 0, fmt.Errorf("objupdate: movement flags missing")
	}
	flags := binary.LittleEndian.Uint16(buf)
	consumed := 2

	if flags&updateFlagLiving == 0 && flags&updateFlagPosition == 0 {
		return nil, consumed, nil
	}

	rest := buf[consumed:]
	if flags&updateFlagLiving != 0 {
		if len(rest) < 4 {
			return nil, 0, fmt.Errorf("objupdate: living movement_flags missing")
		}
		rest = rest[4:] // movement_flags u32
		consumed += 4
		if len(rest) < 1 {
			return nil, 0, fmt.Errorf("objupdate: living extra flags missing")
		}
		rest = rest[1:] // extra movement flags byte
		consumed += 1
		if len(rest) < 4 {
			return nil, 0, fmt.Errorf("objupdate: living timestamp missing")
		}
		rest = rest[4:] // timestamp u32
		consumed += 4
	}

	if len(rest) < 12 {
		return nil, 0, fmt.Errorf("objupdate: position x/y/z missing")
	}
	x := math.Float32frombits(binary.LittleEndian.Uint32(rest))
	y := math.Float32frombits(binary.LittleEndian.Uint32(rest[4:]))
	z := math.Float32frombits(binary.LittleEndian.Uint32(rest[8:]))
	consumed += 12

	// Remainder of the living/position sub-block (orientation, fall
	// time, speeds, spline data for living entities) is not modeled:
	// the consumed count ends at z, so for a block that carries more
	// movement data the following update-fields walk starts at the wrong
	// offset. Parse has no resync; it stops at the first block it cannot
	// decode.
	return &Position{X: x, Y: y, Z: z}, consumed, nil
}

// skipUpdateFields walks a packed update-fields block (mask bitmap +
// one u32 per set bit) and returns the number of bytes it occupies,
// without interpreting individual field values.
func skipUpdateFields(buf []byte) (int, error) {
	if len(buf) < 1 {
		return 0, fmt.Errorf("objupdate: update-fields block count missing")
	}
	blockCount := int(buf[0])
	consumed := 1
	maskBytes := blockCount * 4
	if len(buf) < consumed+maskBytes {
		return 0, fmt.Errorf("objupdate: update-fields mask truncated")
	}
	mask := buf[consumed : consumed+maskBytes]
	consumed += maskBytes

	setBits := 0
	for _, b := range mask {
		for i := 0; i < 8; i++ {
			if b&(1<<uint(i)) != 0 {
				setBits++
			}
		}
	}
	need := setBits * 4
	if len(buf) < consumed+need {
		return 0, fmt.Errorf("objupdate: update-fields values truncated")
	}
	consumed += need
	return consumed, nil
}

// NearestChair returns the closest chair candidate within chairSitRadius
// of pos, or false if none qualify.
func NearestChair(pos Position, chairs []ChairCandidate) (ChairCandidate, bool) {
	best := ChairCandidate{}
	bestDist := math.MaxFloat64
	found := false
	for _, c := range chairs {
		d := pos.Distance(c.Position)
		if d <= chairSitRadius && d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}
