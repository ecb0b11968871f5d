package game

import (
	"encoding/binary"
	"math"
)

// putFloat writes the IEEE bits of v little-endian into b.
func putFloat(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

// roundAmount rounds a sampled amount to a positive integer.
func roundAmount(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}
