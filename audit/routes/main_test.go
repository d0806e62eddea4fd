//go:build !integration
// +build !integration

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"mutapa-lotto/audit/config"
	auditContext "mutapa-lotto/audit/context"
	auditUtils "mutapa-lotto/audit/utils"
	globalConfig "mutapa-lotto/config"
	"mutapa-lotto/database"
	"mutapa-lotto/ledger"
	"mutapa-lotto/vrf"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// Well-known hardhat test account no. 0, used only as a test signing key.
const testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const testDifficulty = 2

var testDrawDate = time.Date(2025, time.March, 12, 18, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	globalConfig.GlobalConfigCallback.Call(testConfig())
	m.Run()
}

func testConfig() *config.Config {
	return &config.Config{
		Logger: globalConfig.LoggerConfig{
			Level:   "DEBUG",
			Console: true,
		},
		Ledger: globalConfig.LedgerConfig{Difficulty: testDifficulty},
		Audit: config.AuditConfig{
			Address:       "localhost:0",
			RecentDraws:   5,
			TreeCacheSize: 10,
		},
	}
}

// newTestRouter connects a fresh database and registers the audit routes
// the same way the audit binary does.
func newTestRouter(t *testing.T) (*mux.Router, auditContext.AuditContext) {
	ctx, err := auditContext.BuildTestContext(testConfig())
	require.NoError(t, err)

	muxRouter := mux.NewRouter()
	router := auditUtils.NewDefaultRouter(muxRouter)
	AddVerificationRoutes(router, ctx)
	AddStatusRoutes(router, ctx)
	router.Finalize()
	return muxRouter, ctx
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func doGet(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	r, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	r.RemoteAddr = "203.0.113.7:9000"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func doPost(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	r, err := http.NewRequest(http.MethodPost, path, auditUtils.StructToReader(t, body))
	require.NoError(t, err)
	r.RemoteAddr = "203.0.113.7:9000"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

// settleDraw runs the whole settlement pipeline against the test
// database, the way the scheduler does it: draw and tickets, number
// generation, genesis if needed, the mined settlement block and the
// frozen draw record.
func settleDraw(
	t *testing.T,
	ctx auditContext.AuditContext,
	drawType database.DrawType,
	ticketCount int,
) (*database.Draw, []database.Ticket, *database.DrawTransaction) {
	db := ctx.DB()

	draw := &database.Draw{
		DrawType:      drawType,
		DrawDate:      testDrawDate,
		Status:        database.DrawStatusScheduled,
		JackpotAmount: 500_000,
	}
	require.NoError(t, database.CreateDraw(db, draw))

	drawTickets := make([]database.Ticket, ticketCount)
	for i := range drawTickets {
		ticket := database.Ticket{
			DrawID:      draw.ID,
			PlayerID:    uint64(i + 1),
			Numbers:     "1,2,3,4,5",
			Stake:       200,
			PurchasedAt: testDrawDate.Add(-time.Hour),
		}
		require.NoError(t, database.CreateTicket(db, &ticket))
		drawTickets[i] = ticket
	}

	vrfService, err := vrf.NewService(&globalConfig.VrfConfig{
		PrivateKey:       testPrivateKey,
		MaxRetries:       1,
		RetryDelayMillis: 1,
	}, vrf.NewVrfDBGorm(db))
	require.NoError(t, err)
	result, err := vrfService.GenerateDrawNumbers(draw.ID, draw.DrawType)
	require.NoError(t, err)

	chain := ledger.New(&ctx.Config().Ledger, ledger.NewChainDBGorm(db))
	require.NoError(t, chain.EnsureGenesis(context.Background()))
	_, tx, err := chain.RecordDrawResult(context.Background(), draw, result.Numbers,
		hexutil.Encode(result.Proof), drawTickets)
	require.NoError(t, err)

	// distinct execution times keep the recent-draws order deterministic
	executedAt := testDrawDate.Add(time.Duration(draw.ID) * time.Minute)
	require.NoError(t, database.CompleteDraw(db, draw.ID, result.Numbers, tx.Hash, executedAt))

	completed, err := database.FetchDraw(db, draw.ID)
	require.NoError(t, err)
	return completed, drawTickets, tx
}
