package routes

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mutapa-lotto/audit/api"
	auditContext "mutapa-lotto/audit/context"
	"mutapa-lotto/audit/utils"
	"mutapa-lotto/database"
	"mutapa-lotto/ledger"
	"mutapa-lotto/tickets"
	globalUtils "mutapa-lotto/utils"
	"mutapa-lotto/utils/merkle"
	"mutapa-lotto/vrf"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ListVerificationsRequest struct {
	PaginatedRequest
	VerificationType string `json:"verificationType" validate:"omitempty,verification-type"`
}

type verificationRouteHandlers struct {
	db    *gorm.DB
	chain *ledger.Ledger

	// Rebuilt draw trees, keyed by draw ID. Only draws settled on the
	// ledger have leaf rows and settled trees never change, so entries
	// cannot go stale.
	trees globalUtils.Cache[uint64, merkle.Tree]
}

func newVerificationRouteHandlers(ctx auditContext.AuditContext) *verificationRouteHandlers {
	cfg := ctx.Config()
	return &verificationRouteHandlers{
		db:    ctx.DB(),
		chain: ledger.New(&cfg.Ledger, ledger.NewChainDBGorm(ctx.DB())),
		trees: globalUtils.NewCache[uint64, merkle.Tree](cfg.Audit.TreeCacheSize),
	}
}

func AddVerificationRoutes(router utils.Router, ctx auditContext.AuditContext) {
	vr := newVerificationRouteHandlers(ctx)

	subrouter := router.WithPrefix("/audit", "Audit")
	subrouter.AddRoute("/verify-ticket/{ticket_id}", vr.verifyTicket(),
		"Verifies the inclusion of a ticket in its draw's Merkle tree and the anchoring of the tree in the ledger")
	subrouter.AddRoute("/verify-draw/{draw_id}", vr.verifyDraw(),
		"Re-verifies the randomness proof, numbers, timing and ledger settlement of a completed draw")
	subrouter.AddRoute("/verifications", vr.listVerifications(),
		"Lists recorded verification outcomes, newest first")
}

// Verification failures are structured results, never HTTP errors: the
// audit API reserves error responses for malformed requests and
// database failures.

func (rh *verificationRouteHandlers) verifyTicket() utils.RouteHandler {
	handler := func(params map[string]string, r *http.Request) (*api.TicketVerification, *utils.ErrorHandler) {
		ticketID, err := strconv.ParseUint(params["ticket_id"], 10, 64)
		if err != nil {
			return nil, utils.ApiResponseErrorHandler(api.ApiResStatusInvalidRequest,
				"invalid ticket id", err.Error())
		}

		result, err := rh.checkTicket(ticketID)
		if err != nil {
			return nil, utils.InternalServerErrorHandler(err)
		}
		if err := recordVerification(rh.db, database.VerificationTicket, ticketID, result.IsValid, result.Details, r); err != nil {
			return nil, utils.InternalServerErrorHandler(err)
		}

		auditMetrics.ticketVerifications.Inc()
		if !result.IsValid {
			auditMetrics.invalidResults.Inc()
		}
		return result, nil
	}
	return utils.NewParamRouteHandler(handler, http.MethodGet,
		map[string]string{"ticket_id": "Numeric ID of the ticket to verify"},
		&api.TicketVerification{})
}

func (rh *verificationRouteHandlers) verifyDraw() utils.RouteHandler {
	handler := func(params map[string]string, r *http.Request) (*api.DrawVerification, *utils.ErrorHandler) {
		drawID, err := strconv.ParseUint(params["draw_id"], 10, 64)
		if err != nil {
			return nil, utils.ApiResponseErrorHandler(api.ApiResStatusInvalidRequest,
				"invalid draw id", err.Error())
		}

		result, err := rh.checkDraw(drawID)
		if err != nil {
			return nil, utils.InternalServerErrorHandler(err)
		}
		if err := recordVerification(rh.db, database.VerificationDraw, drawID, result.IsValid, result.Details, r); err != nil {
			return nil, utils.InternalServerErrorHandler(err)
		}

		auditMetrics.drawVerifications.Inc()
		if !result.IsValid {
			auditMetrics.invalidResults.Inc()
		}
		return result, nil
	}
	return utils.NewParamRouteHandler(handler, http.MethodGet,
		map[string]string{"draw_id": "Numeric ID of the draw to verify"},
		&api.DrawVerification{})
}

func (rh *verificationRouteHandlers) listVerifications() utils.RouteHandler {
	handler := func(request ListVerificationsRequest) ([]api.VerificationRecord, *utils.ErrorHandler) {
		rows, err := database.FetchRecentAuditVerifications(rh.db,
			database.VerificationType(request.VerificationType), request.Offset, request.Limit)
		if err != nil {
			return nil, utils.InternalServerErrorHandler(errors.Wrap(err, "database.FetchRecentAuditVerifications"))
		}
		records := make([]api.VerificationRecord, len(rows))
		for i := range rows {
			records[i] = api.NewVerificationRecord(&rows[i])
		}
		return records, nil
	}
	return utils.NewRouteHandler(handler, http.MethodPost, ListVerificationsRequest{}, []api.VerificationRecord{})
}

// checkTicket re-derives the ticket's leaf hash, rebuilds its inclusion
// proof from the stored draw tree and recombines it against the tickets
// root sealed in the settlement transaction. A missing ticket is a
// failed verification, not an error.
func (rh *verificationRouteHandlers) checkTicket(ticketID uint64) (*api.TicketVerification, error) {
	result := &api.TicketVerification{TicketID: ticketID, IsValid: true}

	ticket, err := database.FetchTicket(rh.db, ticketID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		failTicket(result, "ticket not found")
		return result, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "database.FetchTicket")
	}
	result.DrawID = ticket.DrawID

	leaf, err := database.FetchTicketHash(rh.db, ticketID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		failTicket(result, "ticket has no recorded leaf hash; its draw may not be settled yet")
		return result, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "database.FetchTicketHash")
	}

	computed := tickets.HashTicket(ticket)
	if computed.Hex() != leaf.Hash {
		failTicket(result, "ticket data does not match its recorded leaf hash")
	}

	tx, err := database.FetchDrawTransaction(rh.db, ticket.DrawID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		failTicket(result, fmt.Sprintf("draw %d has no settlement transaction", ticket.DrawID))
		return result, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "database.FetchDrawTransaction")
	}

	tree, err := rh.drawTree(ticket.DrawID)
	if err != nil {
		return nil, err
	}
	proof, err := tree.GetProof(leaf.LeafIndex)
	if err != nil {
		failTicket(result, "ticket leaf index is outside the draw tree")
		return result, nil
	}
	result.MerkleProof = proof

	if !merkle.VerifyProof(computed, proof, common.HexToHash(tx.TicketsRoot)) {
		failTicket(result, "merkle proof does not recombine to the settled tickets root")
	}

	anchorDetails, err := rh.checkAnchoring(ticket.DrawID, tx)
	if err != nil {
		return nil, err
	}
	result.BlockchainVerified = len(anchorDetails) == 0
	for _, detail := range anchorDetails {
		failTicket(result, detail)
	}
	return result, nil
}

// checkAnchoring confirms the settlement transaction is the one the
// draw record points to and sits in an existing ledger block.
func (rh *verificationRouteHandlers) checkAnchoring(drawID uint64, tx *database.DrawTransaction) ([]string, error) {
	var details []string

	draw, err := database.FetchDraw(rh.db, drawID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return append(details, fmt.Sprintf("draw %d not found", drawID)), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "database.FetchDraw")
	}
	if draw.BlockchainHash != tx.Hash {
		details = append(details, "draw record does not point to its settlement transaction")
	}

	_, err = database.FetchBlockByHeight(rh.db, tx.BlockHeight)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		details = append(details, fmt.Sprintf("block %d holding the settlement transaction is missing", tx.BlockHeight))
	} else if err != nil {
		return nil, errors.Wrap(err, "database.FetchBlockByHeight")
	}
	return details, nil
}

// checkDraw re-verifies a completed draw end to end. The four sub-checks
// are independent: tampering with the draw record flips the numbers
// check while the settlement checks on the unaltered ledger still pass,
// and vice versa. They run concurrently, each writing its own detail
// slot, like the ledger's own integrity verification.
func (rh *verificationRouteHandlers) checkDraw(drawID uint64) (*api.DrawVerification, error) {
	result := &api.DrawVerification{DrawID: drawID}

	draw, err := database.FetchDraw(rh.db, drawID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		failDraw(result, "draw not found")
		return result, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "database.FetchDraw")
	}
	if draw.Status != database.DrawStatusCompleted {
		failDraw(result, fmt.Sprintf("draw %d is %s; only completed draws can be verified", drawID, draw.Status))
		return result, nil
	}

	result.IsValid = true
	detailGroups := make([][]string, 4)

	eg, _ := errgroup.WithContext(context.Background())
	eg.Go(func() error {
		var err error
		result.VrfProofValid, result.NumbersVerified, detailGroups[0], err = rh.checkRandomness(draw)
		return err
	})
	eg.Go(func() error {
		result.TimingValid, detailGroups[1] = checkTiming(draw)
		return nil
	})
	eg.Go(func() error {
		var err error
		result.ResultsTamperProof, detailGroups[2], err = rh.checkSettlement(draw)
		return err
	})
	eg.Go(func() error {
		var err error
		result.ParticipantCount, detailGroups[3], err = rh.checkParticipants(draw)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, group := range detailGroups {
		if len(group) > 0 {
			result.IsValid = false
			result.Details = append(result.Details, group...)
		}
	}
	return result, nil
}

// checkRandomness re-verifies the seed record and re-derives the winning
// numbers from its output. The compare ignores order; the stored
// rendering is sorted but the order is not part of the commitment.
func (rh *verificationRouteHandlers) checkRandomness(draw *database.Draw) (proofValid bool, numbersValid bool, details []string, err error) {
	seed, err := database.FetchVrfSeed(rh.db, draw.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, []string{"draw has no randomness record"}, nil
	}
	if err != nil {
		return false, false, nil, errors.Wrap(err, "database.FetchVrfSeed")
	}

	proofValid, err = vrf.VerifySeed(seed, draw.DrawType)
	if err != nil {
		return false, false, nil, err
	}
	if !proofValid {
		details = append(details, "randomness proof does not verify against the recorded seed")
	}

	derived := vrf.DeriveNumbers(common.HexToHash(seed.Output), draw.DrawType)
	stored, err := draw.Numbers()
	if err != nil {
		return proofValid, false, append(details, "stored winning numbers are malformed"), nil
	}
	numbersValid = sameNumbers(derived, stored)
	if !numbersValid {
		details = append(details, "stored winning numbers differ from the numbers the seed derives")
	}
	return proofValid, numbersValid, details, nil
}

func sameNumbers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	return mapset.NewThreadUnsafeSet(a...).Equal(mapset.NewThreadUnsafeSet(b...))
}

func checkTiming(draw *database.Draw) (bool, []string) {
	if draw.ExecutedAt == nil {
		return false, []string{"completed draw has no execution time"}
	}
	if draw.ExecutedAt.Before(draw.DrawDate) {
		return false, []string{"draw executed before its scheduled time"}
	}
	return true, nil
}

// checkSettlement re-runs the ledger integrity checks and ties the draw
// record to its settlement transaction. Tampered draw fields other than
// the transaction pointer are deliberately out of scope here; they are
// caught by the numbers check.
func (rh *verificationRouteHandlers) checkSettlement(draw *database.Draw) (bool, []string, error) {
	report, err := rh.chain.VerifyDrawIntegrity(draw.ID)
	if errors.Is(err, ledger.ErrTransactionNotFound) {
		return false, []string{"draw has no settlement transaction"}, nil
	}
	if err != nil {
		return false, nil, err
	}

	valid := report.Valid()
	details := append([]string(nil), report.Details...)

	tx, err := database.FetchDrawTransaction(rh.db, draw.ID)
	if err != nil {
		return false, nil, errors.Wrap(err, "database.FetchDrawTransaction")
	}
	if draw.BlockchainHash != tx.Hash {
		valid = false
		details = append(details, "draw record does not point to its settlement transaction")
	}
	return valid, details, nil
}

// checkParticipants compares the participant count sealed in the
// settlement transaction with the tickets on record for the draw.
func (rh *verificationRouteHandlers) checkParticipants(draw *database.Draw) (int, []string, error) {
	tx, err := database.FetchDrawTransaction(rh.db, draw.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil, nil // reported by the settlement check
	}
	if err != nil {
		return 0, nil, errors.Wrap(err, "database.FetchDrawTransaction")
	}

	drawTickets, err := database.FetchDrawTickets(rh.db, draw.ID)
	if err != nil {
		return tx.ParticipantCount, nil, errors.Wrap(err, "database.FetchDrawTickets")
	}
	if len(drawTickets) != tx.ParticipantCount {
		return tx.ParticipantCount, []string{fmt.Sprintf(
			"draw has %d tickets on record but the settlement counts %d participants",
			len(drawTickets), tx.ParticipantCount)}, nil
	}
	return tx.ParticipantCount, nil, nil
}

// drawTree returns the Merkle tree of a draw rebuilt from the stored
// leaf rows, caching non-empty trees.
func (rh *verificationRouteHandlers) drawTree(drawID uint64) (merkle.Tree, error) {
	if tree, ok := rh.trees.Get(drawID); ok {
		return tree, nil
	}
	rows, err := database.FetchDrawTicketHashes(rh.db, drawID)
	if err != nil {
		return merkle.Tree{}, errors.Wrap(err, "database.FetchDrawTicketHashes")
	}
	tree := tickets.TreeFromLeafRows(rows)
	if tree.LeafCount() > 0 {
		rh.trees.Add(drawID, tree)
	}
	return tree, nil
}

// recordVerification appends the outcome to the audit trail. Every
// verification writes a row, repeats included.
func recordVerification(
	db *gorm.DB,
	verificationType database.VerificationType,
	subjectID uint64,
	isValid bool,
	details []string,
	r *http.Request,
) error {
	err := database.CreateAuditVerification(db, &database.AuditVerification{
		VerificationType: verificationType,
		SubjectID:        subjectID,
		IsValid:          isValid,
		Details:          strings.Join(details, "; "),
		VerifierAddress:  r.RemoteAddr,
		CreatedAt:        time.Now(),
	})
	return errors.Wrap(err, "database.CreateAuditVerification")
}

func failTicket(v *api.TicketVerification, detail string) {
	v.IsValid = false
	v.Details = append(v.Details, detail)
}

func failDraw(v *api.DrawVerification, detail string) {
	v.IsValid = false
	v.Details = append(v.Details, detail)
}
