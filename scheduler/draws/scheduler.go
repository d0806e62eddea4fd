package draws

import (
	"context"
	"time"

	"mutapa-lotto/database"
	"mutapa-lotto/ledger"
	"mutapa-lotto/logger"
	schedulerctx "mutapa-lotto/scheduler/context"
	"mutapa-lotto/utils"
	"mutapa-lotto/vrf"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

var (
	// ErrDrawInProgress is returned when a draw execution is requested
	// while another draw of any type is executing.
	ErrDrawInProgress = errors.New("another draw is already in progress")

	ErrDrawNotFound = errors.New("draw not found")
)

// Interactions of the scheduler with the database. The actual logic is
// in this file, which is unit-tested.
type drawsDB interface {
	// GetDraw returns a draw by ID or nil if it does not exist.
	GetDraw(id uint64) (*database.Draw, error)
	// GetUpcomingDraw returns the earliest scheduled draw of a type or
	// nil if there is none.
	GetUpcomingDraw(drawType database.DrawType) (*database.Draw, error)
	GetDueDraws(drawType database.DrawType, now time.Time) ([]database.Draw, error)
	GetExecutingDraws() ([]database.Draw, error)
	CreateDraw(draw *database.Draw) error
	UpdateDraw(draw *database.Draw) error
	CompleteDraw(drawID uint64, numbers []int, blockchainHash string, executedAt time.Time) error
	GetDrawTickets(drawID uint64) ([]database.Ticket, error)
	// GetSettlement returns the ledger transaction of a draw or nil if
	// the draw has not been settled.
	GetSettlement(drawID uint64) (*database.DrawTransaction, error)
	// GetSeed returns the stored seed of a draw or nil if none exists.
	GetSeed(drawID uint64) (*database.VrfSeed, error)
}

// Scheduler runs draws: it keeps one upcoming draw of each enabled type
// on the schedule and executes draws when their time arrives. Draw
// execution is mutually exclusive across types through DrawState, which
// also drives the ticket purchase lockout. One instance per deployment;
// concurrent schedulers would race on draw creation.
type Scheduler struct {
	db         drawsDB
	state      *DrawState
	randomness *vrf.Service
	chain      *ledger.Ledger
	winners    winnerClient
	schedules  map[database.DrawType]*Schedule
	jackpots   map[database.DrawType]uint64
	enabled    bool
	timeout    time.Duration

	// For testing to set "now" to some other date
	time utils.ShiftedTime
}

func NewScheduler(ctx schedulerctx.SchedulerContext) (*Scheduler, error) {
	cfg := ctx.Config()
	db := ctx.DB()

	randomness, err := vrf.NewService(&cfg.VRF, vrf.NewVrfDBGorm(db))
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Draws.Timezone)
	if err != nil {
		return nil, errors.Wrap(err, "time.LoadLocation")
	}

	schedules := make(map[database.DrawType]*Schedule)
	jackpots := make(map[database.DrawType]uint64)
	for _, drawType := range []database.DrawType{database.DrawTypeDaily, database.DrawTypeWeekly} {
		typeCfg := cfg.Draws.TypeConfig(drawType)
		if !typeCfg.Enabled {
			continue
		}
		schedule, err := NewSchedule(typeCfg, loc)
		if err != nil {
			return nil, err
		}
		schedules[drawType] = schedule
		jackpots[drawType] = typeCfg.DefaultJackpot
	}

	var winners winnerClient
	if len(cfg.Winners.URL) > 0 {
		winners = NewWinnerClient(&cfg.Winners)
	}

	return &Scheduler{
		db:         NewDrawsDBGorm(db),
		state:      &DrawState{},
		randomness: randomness,
		chain:      ledger.New(&cfg.Ledger, ledger.NewChainDBGorm(db)),
		winners:    winners,
		schedules:  schedules,
		jackpots:   jackpots,
		enabled:    cfg.Draws.Enabled,
		timeout:    time.Duration(cfg.Draws.TimeoutSeconds) * time.Second,
	}, nil
}

func (s *Scheduler) Name() string {
	return "draws"
}

func (s *Scheduler) Enabled() bool {
	return s.enabled
}

func (s *Scheduler) Timeout() time.Duration {
	return s.timeout
}

// OnStart mines the genesis block if the ledger is empty and unsticks
// draws a previous process left in the executing status.
func (s *Scheduler) OnStart() error {
	if err := s.chain.EnsureGenesis(context.Background()); err != nil {
		return err
	}
	return s.recoverStuckDraws()
}

// A crash mid-execution can leave a draw in the executing status. Such
// a draw is either already settled on the ledger, in which case it is
// completed now, or it goes back to scheduled for the next trigger.
func (s *Scheduler) recoverStuckDraws() error {
	stuck, err := s.db.GetExecutingDraws()
	if err != nil {
		return errors.Wrap(err, "drawsDB.GetExecutingDraws")
	}

	for i := range stuck {
		draw := &stuck[i]
		settled, err := s.db.GetSettlement(draw.ID)
		if err != nil {
			return errors.Wrap(err, "drawsDB.GetSettlement")
		}
		if settled != nil {
			if err := s.finishDraw(draw, settled); err != nil {
				return err
			}
			logger.Info("Recovered draw %d: already settled in block %d", draw.ID, settled.BlockHeight)
		} else {
			draw.Status = database.DrawStatusScheduled
			if err := s.db.UpdateDraw(draw); err != nil {
				return errors.Wrap(err, "drawsDB.UpdateDraw")
			}
			logger.Info("Recovered draw %d: returned to the schedule", draw.ID)
		}
	}
	return nil
}

// Call keeps one upcoming draw of each enabled type on the schedule and
// executes the draws whose time has arrived.
func (s *Scheduler) Call() error {
	now := s.time.Now()

	var errs []error
	for _, drawType := range []database.DrawType{database.DrawTypeDaily, database.DrawTypeWeekly} {
		schedule, ok := s.schedules[drawType]
		if !ok {
			continue
		}
		if err := s.ensureUpcomingDraw(drawType, schedule, now); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.executeDueDraws(drawType, now); err != nil {
			errs = append(errs, err)
		}
	}
	return utils.Join(errs...)
}

func (s *Scheduler) ensureUpcomingDraw(drawType database.DrawType, schedule *Schedule, now time.Time) error {
	upcoming, err := s.db.GetUpcomingDraw(drawType)
	if err != nil {
		return errors.Wrap(err, "drawsDB.GetUpcomingDraw")
	}
	if upcoming != nil {
		return nil
	}

	draw := &database.Draw{
		DrawType:      drawType,
		DrawDate:      schedule.NextFireTime(now),
		Status:        database.DrawStatusScheduled,
		JackpotAmount: s.jackpots[drawType],
	}
	if err := s.db.CreateDraw(draw); err != nil {
		return errors.Wrap(err, "drawsDB.CreateDraw")
	}
	logger.Info("Scheduled %s draw %d for %s", drawType, draw.ID, draw.DrawDate)
	return nil
}

func (s *Scheduler) executeDueDraws(drawType database.DrawType, now time.Time) error {
	due, err := s.db.GetDueDraws(drawType, now)
	if err != nil {
		return errors.Wrap(err, "drawsDB.GetDueDraws")
	}

	var errs []error
	for i := range due {
		if err := s.executeDraw(&due[i], now); err != nil {
			errs = append(errs, err)
		}
	}
	return utils.Join(errs...)
}

// ForceExecuteDraw runs the upcoming draw of the given type right away,
// creating it first if none is scheduled. Manual trigger for operators
// and tests; the regular schedule is not consulted.
func (s *Scheduler) ForceExecuteDraw(drawType database.DrawType) (*database.Draw, error) {
	schedule, ok := s.schedules[drawType]
	if !ok {
		return nil, errors.Errorf("%s draws are not configured", drawType)
	}

	now := s.time.Now()
	if err := s.ensureUpcomingDraw(drawType, schedule, now); err != nil {
		return nil, err
	}
	draw, err := s.db.GetUpcomingDraw(drawType)
	if err != nil {
		return nil, errors.Wrap(err, "drawsDB.GetUpcomingDraw")
	}
	if draw == nil {
		return nil, ErrDrawNotFound
	}

	// Drawing ahead of schedule moves the draw date to the trigger
	// time, so the completed record never shows an execution before
	// its own draw date.
	if draw.DrawDate.After(now) {
		draw.DrawDate = now
		if err := s.db.UpdateDraw(draw); err != nil {
			return nil, errors.Wrap(err, "drawsDB.UpdateDraw")
		}
	}

	if err := s.executeDraw(draw, now); err != nil {
		return nil, err
	}
	return s.db.GetDraw(draw.ID)
}

func (s *Scheduler) executeDraw(draw *database.Draw, now time.Time) error {
	execCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token, ok := s.state.TryBegin(draw.DrawType, draw.ID, cancel)
	if !ok {
		return ErrDrawInProgress
	}
	// Release only what this execution owns: after an emergency stop
	// the next draw may already be running by the time we unwind.
	defer s.state.Release(token)

	logger.Info("Executing %s draw %d", draw.DrawType, draw.ID)
	err := s.runDraw(execCtx, draw, now)
	if err != nil {
		schedulerMetrics.drawFailures.Inc()
		s.revertToScheduled(draw)
		return errors.Wrapf(err, "draw %d", draw.ID)
	}
	schedulerMetrics.drawsExecuted.Inc()
	return nil
}

func (s *Scheduler) runDraw(ctx context.Context, draw *database.Draw, now time.Time) error {
	// A settlement already on the ledger means a previous attempt
	// crashed after the commit. Never mine a second block for a draw.
	settled, err := s.db.GetSettlement(draw.ID)
	if err != nil {
		return errors.Wrap(err, "drawsDB.GetSettlement")
	}
	if settled != nil {
		logger.Info("Draw %d is already settled in block %d", draw.ID, settled.BlockHeight)
		return s.finishDraw(draw, settled)
	}

	draw.Status = database.DrawStatusExecuting
	if err := s.db.UpdateDraw(draw); err != nil {
		return errors.Wrap(err, "drawsDB.UpdateDraw")
	}

	drawTickets, err := s.db.GetDrawTickets(draw.ID)
	if err != nil {
		return errors.Wrap(err, "drawsDB.GetDrawTickets")
	}

	numbers, proof, err := s.drawNumbers(draw)
	if err != nil {
		return err
	}

	start := time.Now()
	block, tx, err := s.chain.RecordDrawResult(ctx, draw, numbers, proof, drawTickets)
	if err != nil {
		return err
	}
	schedulerMetrics.miningTime.Set(float64(time.Since(start).Milliseconds()))
	schedulerMetrics.chainHeight.Set(float64(block.Height))

	if err := s.finishDraw(draw, tx); err != nil {
		return err
	}

	s.handOffWinners(ctx, draw.ID)

	// Put the next draw of this type on the schedule
	if schedule, ok := s.schedules[draw.DrawType]; ok {
		if err := s.ensureUpcomingDraw(draw.DrawType, schedule, now); err != nil {
			return err
		}
	}
	return nil
}

// drawNumbers generates the numbers for a draw. When a previous attempt
// crashed after seeding but before settlement, the stored seed is
// verified and reused instead; a draw never gets a second seed.
func (s *Scheduler) drawNumbers(draw *database.Draw) ([]int, string, error) {
	result, err := s.randomness.GenerateDrawNumbers(draw.ID, draw.DrawType)
	if err == nil {
		return result.Numbers, hexutil.Encode(result.Proof), nil
	}
	if !errors.Is(err, vrf.ErrSeedAlreadyExists) {
		return nil, "", err
	}

	seed, err := s.db.GetSeed(draw.ID)
	if err != nil {
		return nil, "", errors.Wrap(err, "drawsDB.GetSeed")
	}
	if seed == nil {
		return nil, "", errors.Errorf("draw %d has no stored seed", draw.ID)
	}
	valid, err := vrf.VerifySeed(seed, draw.DrawType)
	if err != nil {
		return nil, "", err
	}
	if !valid {
		return nil, "", errors.Errorf("stored seed for draw %d does not verify", draw.ID)
	}

	logger.Info("Reusing the existing seed of draw %d", draw.ID)
	return vrf.DeriveNumbers(common.HexToHash(seed.Output), draw.DrawType), seed.Proof, nil
}

// finishDraw freezes the draw row from its settlement transaction. The
// settlement is durable first; completion follows.
func (s *Scheduler) finishDraw(draw *database.Draw, tx *database.DrawTransaction) error {
	numbers, err := tx.Numbers()
	if err != nil {
		return err
	}
	executedAt := s.time.Now()
	if err := s.db.CompleteDraw(draw.ID, numbers, tx.Hash, executedAt); err != nil {
		return errors.Wrap(err, "drawsDB.CompleteDraw")
	}

	draw.Status = database.DrawStatusCompleted
	draw.WinningNumbers = tx.WinningNumbers
	draw.BlockchainHash = tx.Hash
	draw.ExecutedAt = &executedAt
	logger.Info("Completed %s draw %d with numbers %s", draw.DrawType, draw.ID, tx.WinningNumbers)
	return nil
}

func (s *Scheduler) handOffWinners(ctx context.Context, drawID uint64) {
	if s.winners == nil {
		return
	}
	summary, err := s.winners.ProcessDrawWinners(ctx, drawID)
	if err != nil {
		// the draw is durable; winner processing can be replayed
		logger.Error("Winner processing for draw %d failed: %v", drawID, err)
		return
	}
	logger.Info("Winner service took over draw %d: %d winners, %d cents in prizes",
		drawID, summary.TotalWinners, summary.TotalPrizeAmount)
}

func (s *Scheduler) revertToScheduled(draw *database.Draw) {
	if draw.Status == database.DrawStatusCompleted {
		return
	}
	draw.Status = database.DrawStatusScheduled
	if err := s.db.UpdateDraw(draw); err != nil {
		logger.Error("Failed returning draw %d to the schedule: %v", draw.ID, err)
	}
}

// EmergencyStop aborts the draw being executed, if any, and reopens
// ticket purchases. Mining is cancelled between nonce iterations, so no
// partial block reaches the ledger; the aborted draw goes back to the
// schedule through the usual error path.
func (s *Scheduler) EmergencyStop() bool {
	aborted := s.state.Abort()
	if aborted {
		logger.Warn("Emergency stop: draw execution aborted")
	} else {
		logger.Info("Emergency stop: no draw in progress")
	}
	return aborted
}

// PurchaseGate is consulted by the ticket purchase path before selling.
func (s *Scheduler) PurchaseGate() PurchaseGate {
	return s.state.CanPurchaseTickets()
}

func (s *Scheduler) State() StateSnapshot {
	return s.state.Snapshot()
}

// HaltDraw takes a scheduled draw off the schedule for good, with a
// status that keeps it distinguishable from completed draws. Executing
// draws must be emergency-stopped first; completed draws are frozen.
func (s *Scheduler) HaltDraw(drawID uint64) error {
	draw, err := s.db.GetDraw(drawID)
	if err != nil {
		return errors.Wrap(err, "drawsDB.GetDraw")
	}
	if draw == nil {
		return ErrDrawNotFound
	}

	switch draw.Status {
	case database.DrawStatusCompleted:
		return errors.New("completed draws are frozen")
	case database.DrawStatusExecuting:
		return errors.New("draw is executing, emergency-stop it first")
	case database.DrawStatusHalted:
		return nil
	}

	draw.Status = database.DrawStatusHalted
	if err := s.db.UpdateDraw(draw); err != nil {
		return errors.Wrap(err, "drawsDB.UpdateDraw")
	}
	logger.Warn("Draw %d halted", drawID)
	return nil
}
