package vrf

import (
	"encoding/binary"
	"sort"

	"mutapa-lotto/database"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	DailyNumberCount = 5
	DailyMaxNumber   = 45

	WeeklyNumberCount = 6
	WeeklyMaxNumber   = 49
)

// NumbersSpec returns how many numbers a draw of the given type picks
// and the top of the inclusive 1..max range.
func NumbersSpec(drawType database.DrawType) (count int, max int) {
	switch drawType {
	case database.DrawTypeWeekly:
		return WeeklyNumberCount, WeeklyMaxNumber
	default:
		return DailyNumberCount, DailyMaxNumber
	}
}

// DeriveNumbers expands a VRF output into winning numbers. The output
// is rehashed with an increasing counter, each round yielding one
// candidate in [1, max]; duplicates are discarded and the final numbers
// are sorted ascending. The expansion is fully determined by the
// output, so verifiers recompute it bit for bit.
func DeriveNumbers(output common.Hash, drawType database.DrawType) []int {
	count, max := NumbersSpec(drawType)

	picked := mapset.NewThreadUnsafeSet[int]()
	numbers := make([]int, 0, count)
	digest := output
	for counter := uint64(0); len(numbers) < count; counter++ {
		var counterBytes [8]byte
		binary.BigEndian.PutUint64(counterBytes[:], counter)
		digest = crypto.Keccak256Hash(digest.Bytes(), counterBytes[:])

		candidate := int(binary.BigEndian.Uint64(digest[:8])%uint64(max)) + 1
		if picked.Add(candidate) {
			numbers = append(numbers, candidate)
		}
	}

	sort.Ints(numbers)
	return numbers
}
