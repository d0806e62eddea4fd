package ledger

import (
	"strconv"
	"strings"

	"mutapa-lotto/database"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transactions and blocks are hashed over a canonical pipe-separated
// rendering of their fields. Timestamps enter as UTC Unix seconds so a
// database round trip cannot change the hash.

// HashTransaction computes the canonical hash of a draw transaction.
// The Hash field itself is not part of the input.
func HashTransaction(tx *database.DrawTransaction) common.Hash {
	payload := strings.Join([]string{
		strconv.FormatUint(tx.DrawID, 10),
		string(tx.DrawType),
		tx.WinningNumbers,
		tx.VrfProof,
		tx.TicketsRoot,
		strconv.FormatInt(tx.Timestamp.UTC().Unix(), 10),
		tx.PreviousHash,
		strconv.Itoa(tx.ParticipantCount),
		strconv.FormatUint(tx.TotalStake, 10),
	}, "|")
	return crypto.Keccak256Hash([]byte(payload))
}

// HashBlock computes the canonical hash of a block header with the
// given nonce.
func HashBlock(block *database.Block, nonce uint64) common.Hash {
	payload := strings.Join([]string{
		strconv.FormatUint(block.Height, 10),
		strconv.FormatInt(block.Timestamp.UTC().Unix(), 10),
		block.PreviousHash,
		block.MerkleRoot,
		strconv.FormatUint(nonce, 10),
		strconv.Itoa(block.Difficulty),
	}, "|")
	return crypto.Keccak256Hash([]byte(payload))
}

// MeetsDifficulty reports whether the hash carries the required number
// of leading zero hex digits.
func MeetsDifficulty(hash common.Hash, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	digits := hash.Hex()[2:]
	if difficulty > len(digits) {
		difficulty = len(digits)
	}
	return strings.HasPrefix(digits, strings.Repeat("0", difficulty))
}
