//go:build !integration
// +build !integration

package vrf

import (
	"fmt"
	"testing"

	"mutapa-lotto/database"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestDeriveNumbersDaily(t *testing.T) {
	for i := 0; i < 50; i++ {
		output := crypto.Keccak256Hash([]byte(fmt.Sprintf("output %d", i)))
		numbers := DeriveNumbers(output, database.DrawTypeDaily)

		require.Len(t, numbers, DailyNumberCount)
		for j, n := range numbers {
			require.GreaterOrEqual(t, n, 1)
			require.LessOrEqual(t, n, DailyMaxNumber)
			if j > 0 {
				// strictly ascending implies unique
				require.Greater(t, n, numbers[j-1])
			}
		}
	}
}

func TestDeriveNumbersWeekly(t *testing.T) {
	for i := 0; i < 50; i++ {
		output := crypto.Keccak256Hash([]byte(fmt.Sprintf("output %d", i)))
		numbers := DeriveNumbers(output, database.DrawTypeWeekly)

		require.Len(t, numbers, WeeklyNumberCount)
		for j, n := range numbers {
			require.GreaterOrEqual(t, n, 1)
			require.LessOrEqual(t, n, WeeklyMaxNumber)
			if j > 0 {
				require.Greater(t, n, numbers[j-1])
			}
		}
	}
}

func TestDeriveNumbersIsDeterministic(t *testing.T) {
	output := crypto.Keccak256Hash([]byte("fixed output"))

	first := DeriveNumbers(output, database.DrawTypeWeekly)
	second := DeriveNumbers(output, database.DrawTypeWeekly)
	require.Equal(t, first, second)
}

func TestSeedForDrawDependsOnIdentity(t *testing.T) {
	require.NotEqual(t,
		SeedForDraw(1, database.DrawTypeDaily),
		SeedForDraw(2, database.DrawTypeDaily),
	)
	require.NotEqual(t,
		SeedForDraw(1, database.DrawTypeDaily),
		SeedForDraw(1, database.DrawTypeWeekly),
	)
}
