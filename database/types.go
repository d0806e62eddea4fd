package database

// Draw types

type DrawType string

const (
	DrawTypeDaily  DrawType = "daily"
	DrawTypeWeekly DrawType = "weekly"
)

// DrawStatus is the lifecycle of a draw. A draw is created as scheduled,
// moves to executing while numbers are generated and the result is mined
// into the ledger, and ends as completed. Halted is terminal and set by
// an operator taking a scheduled draw off the schedule.
type DrawStatus string

const (
	DrawStatusScheduled DrawStatus = "scheduled"
	DrawStatusExecuting DrawStatus = "executing"
	DrawStatusCompleted DrawStatus = "completed"
	DrawStatusHalted    DrawStatus = "halted"
)

// Audit types

type VerificationType string

const (
	VerificationTicket VerificationType = "ticket"
	VerificationDraw   VerificationType = "draw"
	VerificationChain  VerificationType = "chain"
)

// Misc other types

type MigrationStatus string

const (
	MigrationPending   MigrationStatus = "PENDING"
	MigrationCompleted MigrationStatus = "COMPLETED"
	MigrationFailed    MigrationStatus = "FAILED"
)
