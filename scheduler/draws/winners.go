package draws

import (
	"context"
	"time"

	"mutapa-lotto/scheduler/config"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc/v3"
)

// WinnerSummary is what the winner service reports back after taking
// over a settled draw.
type WinnerSummary struct {
	TotalWinners     int            `json:"totalWinners"`
	TotalPrizeAmount uint64         `json:"totalPrizeAmount"`
	WinnersByTier    map[string]int `json:"winnersByTier"`
}

// winnerClient hands a settled draw off to the external winner service.
// The draw is already durable on the ledger when this runs, so failures
// are logged by the caller and never fail the draw.
type winnerClient interface {
	ProcessDrawWinners(ctx context.Context, drawID uint64) (*WinnerSummary, error)
}

type winnerClientJSONRPC struct {
	client  jsonrpc.RPCClient
	timeout time.Duration
}

func NewWinnerClient(cfg *config.WinnersConfig) winnerClient {
	return &winnerClientJSONRPC{
		client:  jsonrpc.NewClient(cfg.URL),
		timeout: time.Duration(cfg.TimeoutMillis) * time.Millisecond,
	}
}

func (c *winnerClientJSONRPC) ProcessDrawWinners(ctx context.Context, drawID uint64) (*WinnerSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.client.Call(ctx, "winners.processDrawWinners", map[string]uint64{
		"drawId": drawID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "jsonrpc.Call")
	}
	if response.Error != nil {
		return nil, errors.Errorf("winner service error %d: %s", response.Error.Code, response.Error.Message)
	}

	summary := WinnerSummary{}
	if err := response.GetObject(&summary); err != nil {
		return nil, errors.Wrap(err, "response.GetObject")
	}
	return &summary, nil
}
