package routes

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"mutapa-lotto/audit/api"
	auditContext "mutapa-lotto/audit/context"
	"mutapa-lotto/audit/utils"
	"mutapa-lotto/database"
	"mutapa-lotto/ledger"
	"mutapa-lotto/logger"
	"mutapa-lotto/tickets"
	globalUtils "mutapa-lotto/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type statusRouteHandlers struct {
	db          *gorm.DB
	chain       *ledger.Ledger
	recentDraws int
}

func newStatusRouteHandlers(ctx auditContext.AuditContext) *statusRouteHandlers {
	cfg := ctx.Config()
	return &statusRouteHandlers{
		db:          ctx.DB(),
		chain:       ledger.New(&cfg.Ledger, ledger.NewChainDBGorm(ctx.DB())),
		recentDraws: cfg.Audit.RecentDraws,
	}
}

func AddStatusRoutes(router utils.Router, ctx auditContext.AuditContext) {
	sr := newStatusRouteHandlers(ctx)

	subrouter := router.WithPrefix("/audit", "Status")
	subrouter.AddRoute("/blockchain-status", sr.blockchainStatus(),
		"Reports the chain tip, a full chain verification and the most recent completed draws")
	subrouter.AddRoute("/merkle-tree/{draw_id}", sr.merkleTree(),
		"Publishes the full ticket Merkle tree of a settled draw")
}

func (rh *statusRouteHandlers) blockchainStatus() utils.RouteHandler {
	handler := func(params map[string]string, r *http.Request) (*api.BlockchainStatus, *utils.ErrorHandler) {
		info, err := rh.chain.GetInfo()
		if err != nil {
			return nil, utils.InternalServerErrorHandler(err)
		}
		report, err := rh.chain.VerifyChain(r.Context())
		if err != nil {
			return nil, utils.InternalServerErrorHandler(err)
		}

		recent, err := rh.recentCompletedDraws()
		if err != nil {
			return nil, utils.InternalServerErrorHandler(err)
		}

		var details []string
		if len(report.Violation) > 0 {
			details = append(details, report.Violation)
		}
		if err := recordVerification(rh.db, database.VerificationChain, 0, report.Valid, details, r); err != nil {
			return nil, utils.InternalServerErrorHandler(err)
		}
		auditMetrics.chainVerifications.Inc()
		if !report.Valid {
			auditMetrics.invalidResults.Inc()
		}

		return &api.BlockchainStatus{
			Blockchain: api.BlockchainInfo{
				BlockCount:        info.TotalBlocks,
				LatestBlockHash:   info.LatestHash,
				TotalTransactions: info.TotalTransactions,
				IsValid:           report.Valid,
			},
			RecentDraws: recent,
		}, nil
	}
	return utils.NewParamRouteHandler(handler, http.MethodGet, map[string]string{}, &api.BlockchainStatus{})
}

func (rh *statusRouteHandlers) merkleTree() utils.RouteHandler {
	handler := func(params map[string]string, r *http.Request) (*api.MerkleTree, *utils.ErrorHandler) {
		drawID, err := strconv.ParseUint(params["draw_id"], 10, 64)
		if err != nil {
			return nil, utils.ApiResponseErrorHandler(api.ApiResStatusInvalidRequest,
				"invalid draw id", err.Error())
		}

		// only settled draws have a published tree
		_, err = database.FetchDrawTransaction(rh.db, drawID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ApiResponseErrorHandler(api.ApiResStatusNotFound,
				fmt.Sprintf("draw %d is not settled on the ledger", drawID), "")
		}
		if err != nil {
			return nil, utils.InternalServerErrorHandler(errors.Wrap(err, "database.FetchDrawTransaction"))
		}

		rows, err := database.FetchDrawTicketHashes(rh.db, drawID)
		if err != nil {
			return nil, utils.InternalServerErrorHandler(errors.Wrap(err, "database.FetchDrawTicketHashes"))
		}
		drawTickets, err := database.FetchDrawTickets(rh.db, drawID)
		if err != nil {
			return nil, utils.InternalServerErrorHandler(errors.Wrap(err, "database.FetchDrawTickets"))
		}

		return buildMerkleTreeResponse(drawID, rows, drawTickets), nil
	}
	return utils.NewParamRouteHandler(handler, http.MethodGet,
		map[string]string{"draw_id": "Numeric ID of the settled draw"},
		&api.MerkleTree{})
}

// recentCompletedDraws merges the latest completed draws of both types,
// most recently executed first.
func (rh *statusRouteHandlers) recentCompletedDraws() ([]api.RecentDraw, error) {
	var merged []database.Draw
	for _, drawType := range []database.DrawType{database.DrawTypeDaily, database.DrawTypeWeekly} {
		draws, err := database.FetchRecentDraws(rh.db, drawType, rh.recentDraws)
		if err != nil {
			return nil, errors.Wrap(err, "database.FetchRecentDraws")
		}
		merged = append(merged, draws...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return executedAfter(&merged[i], &merged[j])
	})
	if len(merged) > rh.recentDraws {
		merged = merged[:rh.recentDraws]
	}

	recent := make([]api.RecentDraw, len(merged))
	for i := range merged {
		recent[i] = newRecentDraw(&merged[i])
	}
	return recent, nil
}

func executedAfter(a, b *database.Draw) bool {
	var at, bt time.Time
	if a.ExecutedAt != nil {
		at = *a.ExecutedAt
	}
	if b.ExecutedAt != nil {
		bt = *b.ExecutedAt
	}
	return at.After(bt)
}

func newRecentDraw(d *database.Draw) api.RecentDraw {
	numbers, err := d.Numbers()
	if err != nil {
		logger.Warn("Draw %d has malformed winning numbers: %v", d.ID, err)
	}
	return api.RecentDraw{
		DrawID:         d.ID,
		DrawType:       d.DrawType,
		DrawDate:       d.DrawDate,
		WinningNumbers: numbers,
		JackpotAmount:  d.JackpotAmount,
		BlockchainHash: d.BlockchainHash,
		ExecutedAt:     d.ExecutedAt,
	}
}

// buildMerkleTreeResponse rebuilds the tree from the stored leaf rows
// and renders every level as hex, leaves first, root last.
func buildMerkleTreeResponse(drawID uint64, rows []database.TicketHash, drawTickets []database.Ticket) *api.MerkleTree {
	tree := tickets.TreeFromLeafRows(rows)

	levels := tree.Levels()
	hexLevels := make([][]string, len(levels))
	for i, level := range levels {
		hexLevels[i] = make([]string, len(level))
		for j, hash := range level {
			hexLevels[i][j] = hash.Hex()
		}
	}

	byID := globalUtils.ArrayToMap(drawTickets, func(t database.Ticket) uint64 { return t.ID })
	treeTickets := make([]api.TreeTicket, len(rows))
	for i, row := range rows {
		treeTicket := api.TreeTicket{TicketID: row.TicketID, Hash: row.Hash}
		if ticket, ok := byID[row.TicketID]; ok {
			numbers, err := ticket.PickedNumbers()
			if err != nil {
				logger.Warn("Ticket %d has malformed numbers: %v", ticket.ID, err)
			}
			treeTicket.Numbers = numbers
		}
		treeTickets[i] = treeTicket
	}

	return &api.MerkleTree{
		DrawID:       drawID,
		TotalTickets: len(rows),
		MerkleRoot:   tree.Root().Hex(),
		Tree:         hexLevels,
		Tickets:      treeTickets,
	}
}
