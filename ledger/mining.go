package ledger

import (
	"context"

	"github.com/pkg/errors"

	"mutapa-lotto/database"
)

// ErrMiningAborted is returned when block mining is cancelled before a
// qualifying nonce is found. Nothing is persisted in that case.
var ErrMiningAborted = errors.New("mining aborted")

// Number of nonces tried between context checks.
const abortCheckInterval = 4096

// mineBlock searches nonces from zero upwards until the block hash
// meets the block's difficulty, then fills in Nonce and Hash. It checks
// the context between batches of nonces so an emergency stop interrupts
// the search promptly.
func mineBlock(ctx context.Context, block *database.Block) error {
	for nonce := uint64(0); ; nonce++ {
		if nonce%abortCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ErrMiningAborted, ctx.Err().Error())
			default:
			}
		}

		hash := HashBlock(block, nonce)
		if MeetsDifficulty(hash, block.Difficulty) {
			block.Nonce = nonce
			block.Hash = hash.Hex()
			return nil
		}
	}
}
