//go:build !integration
// +build !integration

package routes

import (
	"context"
	"net/http"
	"testing"

	"mutapa-lotto/audit/api"
	auditUtils "mutapa-lotto/audit/utils"
	"mutapa-lotto/database"
	"mutapa-lotto/ledger"
	"mutapa-lotto/utils/merkle"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBlockchainStatusFreshLedger(t *testing.T) {
	router, ctx := newTestRouter(t)
	chain := ledger.New(&ctx.Config().Ledger, ledger.NewChainDBGorm(ctx.DB()))
	require.NoError(t, chain.EnsureGenesis(context.Background()))

	w := doGet(t, router, "/audit/blockchain-status")
	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	var wResponse api.ApiResponseWrapper[api.BlockchainStatus]
	auditUtils.DecodeStruct(t, w.Result().Body, &wResponse)
	require.Equal(t, api.ApiResStatusOk, wResponse.Status)

	status := wResponse.Data
	require.Equal(t, int64(1), status.Blockchain.BlockCount)
	require.Equal(t, int64(0), status.Blockchain.TotalTransactions)
	require.True(t, status.Blockchain.IsValid)
	require.Empty(t, status.RecentDraws)
}

func TestBlockchainStatus(t *testing.T) {
	router, ctx := newTestRouter(t)
	daily, _, _ := settleDraw(t, ctx, database.DrawTypeDaily, 3)
	weekly, _, _ := settleDraw(t, ctx, database.DrawTypeWeekly, 2)

	w := doGet(t, router, "/audit/blockchain-status")
	var wResponse api.ApiResponseWrapper[api.BlockchainStatus]
	auditUtils.DecodeStruct(t, w.Result().Body, &wResponse)
	require.Equal(t, api.ApiResStatusOk, wResponse.Status)

	status := wResponse.Data
	require.Equal(t, int64(3), status.Blockchain.BlockCount)
	require.Equal(t, int64(2), status.Blockchain.TotalTransactions)
	require.True(t, status.Blockchain.IsValid)

	latest, err := database.FetchLatestBlock(ctx.DB())
	require.NoError(t, err)
	require.Equal(t, latest.Hash, status.Blockchain.LatestBlockHash)

	// most recently executed first
	require.Len(t, status.RecentDraws, 2)
	require.Equal(t, weekly.ID, status.RecentDraws[0].DrawID)
	require.Equal(t, daily.ID, status.RecentDraws[1].DrawID)
	require.Equal(t, database.DrawTypeWeekly, status.RecentDraws[0].DrawType)
	require.Equal(t, uint64(500_000), status.RecentDraws[0].JackpotAmount)
	require.Equal(t, weekly.BlockchainHash, status.RecentDraws[0].BlockchainHash)

	numbers, err := weekly.Numbers()
	require.NoError(t, err)
	require.Equal(t, numbers, status.RecentDraws[0].WinningNumbers)

	// the status endpoint records a whole-chain verification
	rows, err := database.FetchRecentAuditVerifications(ctx.DB(), database.VerificationChain, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].IsValid)
	require.Equal(t, uint64(0), rows[0].SubjectID)
}

func TestBlockchainStatusDetectsTamper(t *testing.T) {
	router, ctx := newTestRouter(t)
	settleDraw(t, ctx, database.DrawTypeDaily, 1)

	// remining the nonce invalidates the stored block hash
	err := ctx.DB().Model(&database.Block{}).
		Where("height = ?", 1).
		Update("nonce", gorm.Expr("nonce + 1")).Error
	require.NoError(t, err)

	w := doGet(t, router, "/audit/blockchain-status")
	var wResponse api.ApiResponseWrapper[api.BlockchainStatus]
	auditUtils.DecodeStruct(t, w.Result().Body, &wResponse)
	require.Equal(t, api.ApiResStatusOk, wResponse.Status)
	require.False(t, wResponse.Data.Blockchain.IsValid)

	rows, err := database.FetchRecentAuditVerifications(ctx.DB(), database.VerificationChain, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.False(t, rows[0].IsValid)
	require.Contains(t, rows[0].Details, "hash mismatch")
}

func TestMerkleTree(t *testing.T) {
	router, ctx := newTestRouter(t)
	draw, drawTickets, tx := settleDraw(t, ctx, database.DrawTypeDaily, 3)

	w := doGet(t, router, "/audit/merkle-tree/"+itoa(draw.ID))
	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	var wResponse api.ApiResponseWrapper[api.MerkleTree]
	auditUtils.DecodeStruct(t, w.Result().Body, &wResponse)
	require.Equal(t, api.ApiResStatusOk, wResponse.Status)

	tree := wResponse.Data
	require.Equal(t, draw.ID, tree.DrawID)
	require.Equal(t, 3, tree.TotalTickets)
	require.Equal(t, tx.TicketsRoot, tree.MerkleRoot)

	// leaves first, root last
	require.Len(t, tree.Tree, 3)
	require.Len(t, tree.Tree[0], 3)
	require.Len(t, tree.Tree[1], 2)
	require.Len(t, tree.Tree[2], 1)
	require.Equal(t, tree.MerkleRoot, tree.Tree[2][0])

	// the odd trailing leaf is paired with itself
	last := common.HexToHash(tree.Tree[0][2])
	require.Equal(t, merkle.HashPair(last, last).Hex(), tree.Tree[1][1])

	require.Len(t, tree.Tickets, 3)
	for i, treeTicket := range tree.Tickets {
		require.Equal(t, drawTickets[i].ID, treeTicket.TicketID)
		require.Equal(t, tree.Tree[0][i], treeTicket.Hash)
		require.Equal(t, []int{1, 2, 3, 4, 5}, treeTicket.Numbers)
	}
}

func TestMerkleTreeUnsettled(t *testing.T) {
	router, ctx := newTestRouter(t)

	draw := &database.Draw{
		DrawType: database.DrawTypeDaily,
		DrawDate: testDrawDate,
		Status:   database.DrawStatusScheduled,
	}
	require.NoError(t, database.CreateDraw(ctx.DB(), draw))

	w := doGet(t, router, "/audit/merkle-tree/"+itoa(draw.ID))
	require.Equal(t, http.StatusOK, w.Result().StatusCode)

	var wResponse api.ApiResponseWrapper[api.MerkleTree]
	auditUtils.DecodeStruct(t, w.Result().Body, &wResponse)
	require.Equal(t, api.ApiResStatusNotFound, wResponse.Status)
	require.Contains(t, wResponse.ErrorMessage, "not settled")
}

func TestMerkleTreeInvalidID(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGet(t, router, "/audit/merkle-tree/abc")
	var wResponse api.ApiResponseWrapper[api.MerkleTree]
	auditUtils.DecodeStruct(t, w.Result().Body, &wResponse)
	require.Equal(t, api.ApiResStatusInvalidRequest, wResponse.Status)
	require.Equal(t, "invalid draw id", wResponse.ErrorMessage)
}
