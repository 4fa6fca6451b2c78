package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"cryptoduel/internal/domain"
	"cryptoduel/internal/infra"
	"cryptoduel/internal/sim"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds the gameplay parameters of a session.
type Config struct {
	RoundLength     int             // Ticks per round (default 10)
	TickInterval    time.Duration   // Cadence during the countdown (default 1s)
	StartingBalance decimal.Decimal // Initial ledger balance (default 1000)
	Seed            int64           // rng seed; 0 means time-seeded
}

func (c *Config) applyDefaults() {
	if c.RoundLength <= 0 {
		c.RoundLength = 10
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.StartingBalance.LessThanOrEqual(decimal.Zero) {
		c.StartingBalance = decimal.NewFromInt(1000)
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
}

type cmdKind int

const (
	cmdCommitWager cmdKind = iota
	cmdSelectAsset
	cmdStartNext
	cmdAbandon
)

type command struct {
	kind    cmdKind
	amount  decimal.Decimal
	assetID string
	reply   chan error
}

// fetchResult carries resolved starting prices back into the loop,
// tagged with the round that asked for them. A result whose round is
// no longer live is discarded, never applied.
type fetchResult struct {
	roundID uuid.UUID
	pair    domain.PricePair
}

// Session is the round engine. It owns the single live round and the
// ledger, and is the only writer of both: all intents, tick deadlines
// and fetch results are funneled into one goroutine (Run). External
// readers get copies via Snapshot.
type Session struct {
	cfg      Config
	catalog  *domain.Catalog
	source   domain.PriceSource
	recorder domain.RoundRecorder
	onUpdate func(domain.RoundSnapshot)

	rng     *rand.Rand
	inbox   chan command
	fetches chan fetchResult
	done    chan struct{}

	// Loop-owned state. Never touched outside Run.
	round        *domain.Round
	ledger       domain.Ledger
	pendingFetch uuid.UUID
	tickAnchor   time.Time
	ticksDone    int
	timer        *time.Timer

	mu   sync.RWMutex // Guards snap for external reads only
	snap domain.RoundSnapshot
}

// NewSession creates a session. recorder and onUpdate may be nil.
func NewSession(cfg Config, catalog *domain.Catalog, source domain.PriceSource, recorder domain.RoundRecorder, onUpdate func(domain.RoundSnapshot)) *Session {
	cfg.applyDefaults()
	return &Session{
		cfg:      cfg,
		catalog:  catalog,
		source:   source,
		recorder: recorder,
		onUpdate: onUpdate,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		inbox:    make(chan command, 16),
		fetches:  make(chan fetchResult, 4),
		done:     make(chan struct{}),
		ledger:   domain.NewLedger(cfg.StartingBalance),
	}
}

// Run starts the session loop. This MUST be run in a single goroutine;
// it is the only writer of round state and ledger.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	s.timer = time.NewTimer(time.Hour)
	s.stopTimer()

	s.beginRound(ctx)
	slog.Info("game session started",
		slog.Int("round_length", s.cfg.RoundLength),
		slog.String("starting_balance", s.cfg.StartingBalance.String()),
	)

	for {
		// The tick channel is only live while counting, so a stale timer
		// can never fire into another phase.
		var tickC <-chan time.Time
		if s.round.Phase == domain.PhaseCounting {
			tickC = s.timer.C
		}

		select {
		case <-ctx.Done():
			slog.Info("game session stopping")
			return
		case cmd := <-s.inbox:
			s.handleCommand(ctx, cmd)
		case res := <-s.fetches:
			s.applyFetch(res)
		case now := <-tickC:
			s.onTick(now)
		}
	}
}

// CommitWager places a bet for the current round. Valid only in the
// awaiting-bet phase with 0 < amount <= balance.
func (s *Session) CommitWager(amount decimal.Decimal) error {
	return s.send(command{kind: cmdCommitWager, amount: amount})
}

// SelectAsset locks in the player's pick and starts the countdown.
func (s *Session) SelectAsset(id string) error {
	return s.send(command{kind: cmdSelectAsset, assetID: id})
}

// StartNextRound discards a settled round and opens a fresh one.
func (s *Session) StartNextRound() error {
	return s.send(command{kind: cmdStartNext})
}

// Abandon cancels the current round regardless of phase. A wager that
// never ran to settlement is refunded.
func (s *Session) Abandon() error {
	return s.send(command{kind: cmdAbandon})
}

// Snapshot returns the latest read-only projection of the session.
func (s *Session) Snapshot() domain.RoundSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Session) send(cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case s.inbox <- cmd:
	case <-s.done:
		return domain.ErrSessionClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.done:
		return domain.ErrSessionClosed
	}
}

func (s *Session) handleCommand(ctx context.Context, cmd command) {
	var err error
	switch cmd.kind {
	case cmdCommitWager:
		err = s.commitWager(ctx, cmd.amount)
	case cmdSelectAsset:
		err = s.selectAsset(cmd.assetID)
	case cmdStartNext:
		err = s.startNext(ctx)
	case cmdAbandon:
		err = s.abandon(ctx)
	}
	cmd.reply <- err
}

// beginRound picks a fresh pair, seeds fallback prices and kicks off the
// live lookup. Any timer or fetch belonging to the previous round is
// invalidated here: the timer is stopped and stale fetch results fail
// the round-id check in applyFetch.
func (s *Session) beginRound(ctx context.Context) {
	s.stopTimer()

	a, b := s.catalog.PickTwo(s.rng)
	r := &domain.Round{
		ID:     uuid.New(),
		Phase:  domain.PhaseAwaitingBet,
		AssetA: a,
		AssetB: b,
		PriceA: a.FallbackPrice,
		PriceB: b.FallbackPrice,
		// Fallback until the live lookup lands
		PricingDegraded: true,
	}
	s.round = r
	s.pendingFetch = r.ID

	go func(id uuid.UUID, a, b domain.Asset) {
		pair := s.source.StartingPrices(ctx, a, b)
		select {
		case s.fetches <- fetchResult{roundID: id, pair: pair}:
		case <-ctx.Done():
		}
	}(r.ID, a, b)

	slog.Info("round started",
		slog.String("round_id", r.ID.String()),
		slog.String("asset_a", a.ID),
		slog.String("asset_b", b.ID),
	)
	s.publish()
}

// applyFetch installs starting prices if they belong to the live round
// and betting is still open. Everything else is dropped.
func (s *Session) applyFetch(res fetchResult) {
	if s.round == nil || res.roundID != s.round.ID {
		slog.Debug("discarding superseded price fetch", slog.String("round_id", res.roundID.String()))
		return
	}
	if s.round.Phase != domain.PhaseAwaitingBet {
		return
	}

	s.pendingFetch = uuid.Nil
	s.round.PriceA = res.pair.PriceA
	s.round.PriceB = res.pair.PriceB
	s.round.PricingDegraded = res.pair.Degraded
	if res.pair.Degraded {
		slog.Warn("round running on fallback pricing", slog.String("round_id", s.round.ID.String()))
	}
	s.publish()
}

func (s *Session) commitWager(ctx context.Context, amount decimal.Decimal) error {
	if s.round.Phase != domain.PhaseAwaitingBet {
		return domain.ErrInvalidTransition
	}
	if err := s.ledger.Commit(amount); err != nil {
		return err
	}
	s.round.Wager = amount

	// Starting prices must be final before selection opens. The source
	// always reports (fallback included), so this wait is bounded by its
	// own HTTP timeout.
	for s.pendingFetch == s.round.ID {
		select {
		case res := <-s.fetches:
			s.applyFetch(res)
		case <-ctx.Done():
			s.pendingFetch = uuid.Nil // shutting down; keep fallback prices
		}
	}

	s.round.Phase = domain.PhaseAwaitingSelection
	s.publish()
	return nil
}

func (s *Session) selectAsset(id string) error {
	r := s.round
	if r.Phase != domain.PhaseAwaitingSelection {
		return domain.ErrInvalidTransition
	}
	if id != r.AssetA.ID && id != r.AssetB.ID {
		return domain.ErrInvalidSelection
	}

	r.SelectedAssetID = id
	r.HistoryA = []float64{r.PriceA}
	r.HistoryB = []float64{r.PriceB}
	r.TicksRemaining = s.cfg.RoundLength
	r.Phase = domain.PhaseCounting

	s.tickAnchor = time.Now()
	s.ticksDone = 0
	s.armTimer(s.cfg.TickInterval)

	s.publish()
	return nil
}

// onTick runs every tick whose deadline has passed, then re-arms for the
// next one. Deadlines are anchored at selection time, so a late timer
// fire catches up instead of skipping and an early fire just waits:
// exactly RoundLength ticks happen per round.
func (s *Session) onTick(now time.Time) {
	for s.round.Phase == domain.PhaseCounting {
		next := s.tickAnchor.Add(time.Duration(s.ticksDone+1) * s.cfg.TickInterval)
		if now.Before(next) {
			s.armTimer(next.Sub(now))
			break
		}
		s.advanceTick()
		if s.round.TicksRemaining == 0 {
			s.settle()
		}
	}
	s.publish()
}

func (s *Session) advanceTick() {
	r := s.round
	r.PriceA = sim.Tick(r.PriceA, r.AssetA.Volatility, s.rng)
	r.PriceB = sim.Tick(r.PriceB, r.AssetB.Volatility, s.rng)
	r.HistoryA = append(r.HistoryA, r.PriceA)
	r.HistoryB = append(r.HistoryB, r.PriceB)
	r.TicksRemaining--
	s.ticksDone++
	infra.GlobalMetrics.RecordTick()
}

// settle fixes the winner and updates the ledger. Runs exactly once per
// round, synchronously at the final tick.
func (s *Session) settle() {
	r := s.round
	r.PctA = domain.ChangePct(r.HistoryA)
	r.PctB = domain.ChangePct(r.HistoryB)
	r.WinnerID = r.Winner(r.PctA, r.PctB)

	won := r.SelectedAssetID == r.WinnerID
	if won {
		s.ledger.CreditWin(r.Wager)
		infra.GlobalMetrics.RecordWin()
	} else {
		s.ledger.RecordLoss()
		infra.GlobalMetrics.RecordLoss()
	}
	r.Phase = domain.PhaseSettled
	infra.GlobalMetrics.RecordRound()

	slog.Info("round settled",
		slog.String("round_id", r.ID.String()),
		slog.String("winner", r.WinnerID),
		slog.Bool("won", won),
		slog.String("balance", s.ledger.Balance.String()),
	)

	if s.recorder != nil {
		if err := s.recorder.SaveRound(domain.NewRoundRecord(r, time.Now())); err != nil {
			slog.Warn("failed to persist settled round", slog.Any("error", err))
		}
	}
}

func (s *Session) startNext(ctx context.Context) error {
	if s.round.Phase != domain.PhaseSettled {
		return domain.ErrInvalidTransition
	}
	s.beginRound(ctx)
	return nil
}

func (s *Session) abandon(ctx context.Context) error {
	switch s.round.Phase {
	case domain.PhaseAwaitingSelection, domain.PhaseCounting:
		// The bet never ran to settlement
		s.ledger.Refund(s.round.Wager)
	}
	s.beginRound(ctx)
	return nil
}

func (s *Session) publish() {
	snap := s.round.Snapshot(s.ledger)
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(snap)
	}
}

func (s *Session) armTimer(d time.Duration) {
	s.stopTimer()
	s.timer.Reset(d)
}

func (s *Session) stopTimer() {
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
}
