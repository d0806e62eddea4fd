package api

import (
	"time"

	"mutapa-lotto/database"
	"mutapa-lotto/utils/merkle"
)

// TicketVerification is the outcome of re-checking one ticket against
// the draw's Merkle tree and the ledger. Details lists every failed
// check in plain words; an empty list with IsValid false cannot occur.
type TicketVerification struct {
	TicketID           uint64             `json:"ticketId"`
	DrawID             uint64             `json:"drawId"`
	IsValid            bool               `json:"isValid"`
	MerkleProof        []merkle.ProofStep `json:"merkleProof,omitempty"`
	BlockchainVerified bool               `json:"blockchainVerified"`
	Details            []string           `json:"details,omitempty"`
}

// DrawVerification is the outcome of re-checking one completed draw:
// the VRF proof, the derived numbers, the execution timing, the ledger
// integrity and the participant count are verified independently.
type DrawVerification struct {
	DrawID             uint64   `json:"drawId"`
	IsValid            bool     `json:"isValid"`
	VrfProofValid      bool     `json:"vrfProofValid"`
	NumbersVerified    bool     `json:"numbersVerified"`
	TimingValid        bool     `json:"timingValid"`
	ResultsTamperProof bool     `json:"resultsTamperProof"`
	ParticipantCount   int      `json:"participantCount"`
	Details            []string `json:"details,omitempty"`
}

type BlockchainInfo struct {
	BlockCount        int64  `json:"blockCount"`
	LatestBlockHash   string `json:"latestBlockHash"`
	TotalTransactions int64  `json:"totalTransactions"`
	IsValid           bool   `json:"isValid"`
}

type RecentDraw struct {
	DrawID         uint64            `json:"drawId"`
	DrawType       database.DrawType `json:"drawType"`
	DrawDate       time.Time         `json:"drawDate"`
	WinningNumbers []int             `json:"winningNumbers"`
	JackpotAmount  uint64            `json:"jackpotAmount"`
	BlockchainHash string            `json:"blockchainHash"`
	ExecutedAt     *time.Time        `json:"executedAt"`
}

type BlockchainStatus struct {
	Blockchain  BlockchainInfo `json:"blockchain"`
	RecentDraws []RecentDraw   `json:"recent_draws"`
}

// TreeTicket pairs a leaf of the published Merkle tree with the ticket
// it commits to.
type TreeTicket struct {
	TicketID uint64 `json:"ticketId"`
	Hash     string `json:"hash"`
	Numbers  []int  `json:"numbers"`
}

// MerkleTree is the full published tree of a completed draw. Tree holds
// the node hashes level by level, leaves first, root last.
type MerkleTree struct {
	DrawID       uint64       `json:"drawId"`
	TotalTickets int          `json:"totalTickets"`
	MerkleRoot   string       `json:"merkleRoot"`
	Tree         [][]string   `json:"tree"`
	Tickets      []TreeTicket `json:"tickets"`
}

// VerificationRecord is one persisted verification outcome.
type VerificationRecord struct {
	ID               uint64                    `json:"id"`
	VerificationType database.VerificationType `json:"verificationType"`
	SubjectID        uint64                    `json:"subjectId"`
	IsValid          bool                      `json:"isValid"`
	Details          string                    `json:"details,omitempty"`
	VerifierAddress  string                    `json:"verifierAddress"`
	CreatedAt        time.Time                 `json:"createdAt"`
}

func NewVerificationRecord(v *database.AuditVerification) VerificationRecord {
	return VerificationRecord{
		ID:               v.ID,
		VerificationType: v.VerificationType,
		SubjectID:        v.SubjectID,
		IsValid:          v.IsValid,
		Details:          v.Details,
		VerifierAddress:  v.VerifierAddress,
		CreatedAt:        v.CreatedAt,
	}
}
