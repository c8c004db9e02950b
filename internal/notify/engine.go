package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"go.uber.org/zap"
)

// Deps bundles the external ports the engine reads and writes through
type Deps struct {
	Users        UserSource
	Settings     SettingsSource
	Devices      DeviceStore
	Attempts     AttemptStore
	Logs         LogSource
	Streaks      StreakSource
	Entitlements EntitlementSource
	Usage        UsageSource
	Transport    Transport
}

// Options tunes the dispatch loop
type Options struct {
	Interval    time.Duration // delay between ticks
	UserBatch   int           // max users evaluated per tick
	DeviceBatch int           // devices per transport call
	DryRun      bool          // simulate delivery without calling the transport
}

// Engine is the periodic notification candidate selection and dispatch
// engine. One Engine instance owns the attempt log and the disabled flag of
// device registrations; everything else it touches is read-only.
type Engine struct {
	deps Deps
	opts Options
	log  *zap.Logger

	now func() time.Time // injectable clock for tests
}

// NewEngine creates a dispatch engine with sane defaults for zero options
func NewEngine(deps Deps, opts Options, log *zap.Logger) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Minute
	}
	if opts.UserBatch <= 0 {
		opts.UserBatch = 500
	}
	if opts.DeviceBatch <= 0 {
		opts.DeviceBatch = 100
	}
	return &Engine{
		deps: deps,
		opts: opts,
		log:  log,
		now:  time.Now,
	}
}

// Run drives the dispatch loop until ctx is canceled. The timer is re-armed
// only after a tick fully completes, so ticks never overlap.
func (e *Engine) Run(ctx context.Context) {
	e.log.Info("notification engine started",
		zap.Duration("interval", e.opts.Interval),
		zap.Bool("dry_run", e.opts.DryRun))

	timer := time.NewTimer(e.opts.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("notification engine stopping")
			return
		case <-timer.C:
			e.Tick(ctx)
			timer.Reset(e.opts.Interval)
		}
	}
}

// Tick runs one full dispatch cycle: page through eligible users and give
// each at most one push. A user's failure never aborts the others.
func (e *Engine) Tick(ctx context.Context) {
	users, err := e.deps.Users.ListNotifiable(e.opts.UserBatch)
	if err != nil {
		e.log.Error("list notifiable users failed", zap.Error(err))
		return
	}

	for i := range users {
		user := &users[i]
		if err := e.processUser(ctx, user); err != nil {
			e.log.Error("notification cycle failed",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
	}
}

// processUser runs the whole per-user sequence: daily cap, candidate
// building, quiet-hour filtering, arbitration, dedup, delivery.
func (e *Engine) processUser(ctx context.Context, user *model.User) error {
	now := e.now().UTC()

	settings, err := e.deps.Settings.GetOrCreate(user.ID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		loc = time.UTC
	}
	dayStart, dayEnd := LocalDayBounds(now, loc)

	// Daily cap comes first: past the cap, no candidate is even built.
	dailyCap := settings.DailyCap
	if dailyCap < 1 {
		dailyCap = 1
	}
	sentToday, err := e.deps.Attempts.CountSentBetween(user.ID, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("count sent today: %w", err)
	}
	if sentToday >= int64(dailyCap) {
		return nil
	}

	candidates, err := e.buildCandidates(ctx, user, settings, now, loc)
	if err != nil {
		return err
	}

	inQuiet := WithinQuietHours(MinuteOfDay(now.In(loc)), settings.QuietHoursStart, settings.QuietHoursEnd)
	winner := pickWinner(candidates, inQuiet)
	if winner == nil {
		return nil
	}

	dup, err := e.alreadySent(user.ID, winner, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if dup {
		return nil
	}

	return e.deliver(ctx, user, winner, now)
}

// buildCandidates evaluates every builder whose category toggle is enabled
func (e *Engine) buildCandidates(ctx context.Context, user *model.User, settings *model.NotificationSettings, now time.Time, loc *time.Location) ([]Candidate, error) {
	var candidates []Candidate

	if settings.ImportantEnabled {
		periodEnd, err := e.deps.Entitlements.ActiveWindowEnd(user.ID, now)
		if err != nil {
			return nil, fmt.Errorf("read entitlement: %w", err)
		}
		if c := buildPremiumExpiring(now, periodEnd); c != nil {
			candidates = append(candidates, *c)
		}

		remaining, err := e.deps.Usage.RemainingFreeUses(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("read usage: %w", err)
		}
		if c := buildUsageLow(remaining); c != nil {
			candidates = append(candidates, *c)
		}

		oldest, err := e.deps.Logs.OldestLogAt(user.ID)
		if err != nil {
			return nil, fmt.Errorf("read oldest log: %w", err)
		}
		warnedRecently, err := e.deps.Attempts.SentExistsSince(user.ID, TypeRetentionWarning, now.Add(-retentionResend))
		if err != nil {
			return nil, fmt.Errorf("check recent retention warning: %w", err)
		}
		if c := buildRetentionWarning(now, oldest, periodEnd != nil, warnedRecently); c != nil {
			candidates = append(candidates, *c)
		}
	}

	if settings.ReminderEnabled {
		length, lastActivity, err := e.deps.Streaks.CurrentStreak(user.ID)
		if err != nil {
			return nil, fmt.Errorf("read streak: %w", err)
		}
		c, err := buildStreakCongrats(now, length, lastActivity, func(typ string) (bool, error) {
			return e.deps.Attempts.SentExistsEver(user.ID, typ)
		})
		if err != nil {
			return nil, fmt.Errorf("check streak history: %w", err)
		}
		if c != nil {
			candidates = append(candidates, *c)
		}

		logs, err := e.deps.Logs.RecentLogs(user.ID, now.AddDate(0, 0, -reminderHistoryDays))
		if err != nil {
			return nil, fmt.Errorf("read recent logs: %w", err)
		}
		if c := buildMealReminder(now, loc, logs); c != nil {
			candidates = append(candidates, *c)
		}
	}

	return candidates, nil
}

// pickWinner filters by quiet-hour eligibility and takes the highest priority
func pickWinner(candidates []Candidate, inQuietHours bool) *Candidate {
	eligible := candidates[:0:0]
	for _, c := range candidates {
		if inQuietHours && !c.AllowDuringQuietHours {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority > eligible[j].Priority
	})
	return &eligible[0]
}

// alreadySent applies the winner's dedup policy against the attempt log
func (e *Engine) alreadySent(userID uuid.UUID, c *Candidate, dayStart, dayEnd time.Time) (bool, error) {
	switch c.Dedup {
	case DedupPermanent:
		return e.deps.Attempts.SentExistsEver(userID, c.Type)
	default:
		return e.deps.Attempts.SentExistsBetween(userID, c.Type, dayStart, dayEnd)
	}
}

// deliver persists the attempt, pushes to the user's devices in batches and
// finalizes the attempt status from the per-message outcomes.
func (e *Engine) deliver(ctx context.Context, user *model.User, c *Candidate, now time.Time) error {
	attempt := &model.NotificationAttempt{
		UserID:       user.ID,
		Type:         c.Type,
		Status:       model.AttemptPending,
		ScheduledFor: now,
		Title:        c.Title,
		Body:         c.Body,
		Payload:      c.Data,
	}
	if err := e.deps.Attempts.Create(attempt); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}

	if e.opts.DryRun {
		if err := e.deps.Attempts.MarkSent(attempt.ID, now, nil, nil); err != nil {
			return fmt.Errorf("finalize dry-run attempt: %w", err)
		}
		e.log.Info("dry run: delivery simulated",
			zap.String("user_id", user.ID.String()),
			zap.String("type", c.Type))
		return nil
	}

	devices, err := e.deps.Devices.ActiveByUser(user.ID)
	if err != nil {
		return fmt.Errorf("load devices: %w", err)
	}
	if len(devices) == 0 {
		if err := e.deps.Attempts.MarkFailed(attempt.ID, "no active devices"); err != nil {
			return fmt.Errorf("finalize attempt: %w", err)
		}
		return nil
	}

	var receipts []string
	var messageErrs []string

	for start := 0; start < len(devices); start += e.opts.DeviceBatch {
		end := start + e.opts.DeviceBatch
		if end > len(devices) {
			end = len(devices)
		}
		chunk := devices[start:end]

		msgs := make([]Message, 0, len(chunk))
		for _, d := range chunk {
			msgs = append(msgs, Message{
				Token: d.PushToken,
				Title: c.Title,
				Body:  c.Body,
				Data:  c.Data,
			})
		}

		results, err := e.deps.Transport.SendBatch(ctx, msgs)
		if err != nil {
			if markErr := e.deps.Attempts.MarkFailed(attempt.ID, err.Error()); markErr != nil {
				e.log.Error("mark attempt failed errored",
					zap.String("attempt_id", attempt.ID.String()),
					zap.Error(markErr))
			}
			return fmt.Errorf("send batch: %w", err)
		}

		for i, res := range results {
			switch {
			case res.OK:
				if res.ReceiptID != "" {
					receipts = append(receipts, res.ReceiptID)
				}
			case res.Unregistered:
				// Dead registration. Disabling is best-effort and never
				// aborts the rest of the batch.
				if err := e.deps.Devices.Disable(chunk[i].ID, now); err != nil {
					e.log.Warn("disable dead device failed",
						zap.String("device_id", chunk[i].ID.String()),
						zap.Error(err))
				}
			default:
				if res.Err != nil {
					messageErrs = append(messageErrs, res.Err.Error())
				}
			}
		}
	}

	var partialErr *string
	if len(messageErrs) > 0 {
		joined := strings.Join(messageErrs, "; ")
		partialErr = &joined
	}
	if err := e.deps.Attempts.MarkSent(attempt.ID, now, receipts, partialErr); err != nil {
		return fmt.Errorf("finalize attempt: %w", err)
	}

	e.log.Info("notification sent",
		zap.String("user_id", user.ID.String()),
		zap.String("type", c.Type),
		zap.Int("devices", len(devices)),
		zap.Int("receipts", len(receipts)))
	return nil
}
