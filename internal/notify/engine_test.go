package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phamquangminh/mealio/internal/model"
)

// fakeWorld implements every engine port in memory
type fakeWorld struct {
	user     model.User
	settings model.NotificationSettings

	devices   []model.UserDevice
	logs      []model.MealLog
	oldestLog *time.Time

	streakLen  int
	streakLast *time.Time
	periodEnd  *time.Time
	remaining  int

	sentToday      int64
	sentTodayTypes map[string]bool
	sentEverTypes  map[string]bool
	warnedRecently bool

	sendFn    func(msgs []Message) ([]SendResult, error)
	sendCalls [][]Message

	created      []*model.NotificationAttempt
	sentID       *uuid.UUID
	sentReceipts []string
	partialErr   *string
	failedReason string
	disabled     []uuid.UUID
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		user: model.User{ID: uuid.New()},
		settings: model.NotificationSettings{
			ReminderEnabled:  true,
			ImportantEnabled: true,
			DailyCap:         3,
			Timezone:         "UTC",
		},
		devices: []model.UserDevice{
			{ID: uuid.New(), PushToken: "token-1"},
		},
		remaining:      10,
		sentTodayTypes: map[string]bool{},
		sentEverTypes:  map[string]bool{},
		sendFn: func(msgs []Message) ([]SendResult, error) {
			results := make([]SendResult, len(msgs))
			for i := range results {
				results[i] = SendResult{OK: true, ReceiptID: fmt.Sprintf("receipt-%d", i)}
			}
			return results, nil
		},
	}
}

func (f *fakeWorld) ListNotifiable(limit int) ([]model.User, error) {
	return []model.User{f.user}, nil
}

func (f *fakeWorld) GetOrCreate(userID uuid.UUID) (*model.NotificationSettings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeWorld) ActiveByUser(userID uuid.UUID) ([]model.UserDevice, error) {
	return f.devices, nil
}

func (f *fakeWorld) Disable(deviceID uuid.UUID, at time.Time) error {
	f.disabled = append(f.disabled, deviceID)
	return nil
}

func (f *fakeWorld) Create(attempt *model.NotificationAttempt) error {
	attempt.ID = uuid.New()
	f.created = append(f.created, attempt)
	return nil
}

func (f *fakeWorld) MarkSent(id uuid.UUID, at time.Time, receiptIDs []string, partialErr *string) error {
	f.sentID = &id
	f.sentReceipts = receiptIDs
	f.partialErr = partialErr
	return nil
}

func (f *fakeWorld) MarkFailed(id uuid.UUID, reason string) error {
	f.failedReason = reason
	return nil
}

func (f *fakeWorld) CountSentBetween(userID uuid.UUID, from, to time.Time) (int64, error) {
	return f.sentToday, nil
}

func (f *fakeWorld) SentExistsBetween(userID uuid.UUID, typ string, from, to time.Time) (bool, error) {
	return f.sentTodayTypes[typ], nil
}

func (f *fakeWorld) SentExistsSince(userID uuid.UUID, typ string, since time.Time) (bool, error) {
	return f.warnedRecently, nil
}

func (f *fakeWorld) SentExistsEver(userID uuid.UUID, typ string) (bool, error) {
	return f.sentEverTypes[typ], nil
}

func (f *fakeWorld) RecentLogs(userID uuid.UUID, since time.Time) ([]model.MealLog, error) {
	return f.logs, nil
}

func (f *fakeWorld) OldestLogAt(userID uuid.UUID) (*time.Time, error) {
	return f.oldestLog, nil
}

func (f *fakeWorld) CurrentStreak(userID uuid.UUID) (int, *time.Time, error) {
	return f.streakLen, f.streakLast, nil
}

func (f *fakeWorld) ActiveWindowEnd(userID uuid.UUID, now time.Time) (*time.Time, error) {
	return f.periodEnd, nil
}

func (f *fakeWorld) RemainingFreeUses(ctx context.Context, userID uuid.UUID) (int, error) {
	return f.remaining, nil
}

func (f *fakeWorld) SendBatch(ctx context.Context, msgs []Message) ([]SendResult, error) {
	f.sendCalls = append(f.sendCalls, msgs)
	return f.sendFn(msgs)
}

func newTestEngine(f *fakeWorld, opts Options, now time.Time) *Engine {
	e := NewEngine(Deps{
		Users:        f,
		Settings:     f,
		Devices:      f,
		Attempts:     f,
		Logs:         f,
		Streaks:      f,
		Entitlements: f,
		Usage:        f,
		Transport:    f,
	}, opts, zap.NewNop())
	e.now = func() time.Time { return now }
	return e
}

// noon avoids every reminder window so only explicitly armed signals fire
var noon = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestEngineDailyCapBlocksEverything(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0 // would normally fire ai.usage.low
	f.sentToday = 3

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 0 {
		t.Fatalf("cap reached, expected no attempt, got %d", len(f.created))
	}
}

func TestEngineDailyCapClampedToOne(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0
	f.settings.DailyCap = 0 // malformed, treated as 1
	f.sentToday = 1

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 0 {
		t.Fatalf("clamped cap of 1 already used, expected no attempt, got %d", len(f.created))
	}
}

func TestEngineNoCandidates(t *testing.T) {
	f := newFakeWorld()

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 0 || len(f.sendCalls) != 0 {
		t.Fatal("nothing is due, expected no attempt and no send")
	}
}

func TestEngineSendsHighestPriority(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0 // ai.usage.low, priority 90
	end := noon.Add(24 * time.Hour)
	f.periodEnd = &end // premium.expiring, priority 100

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", len(f.created))
	}
	if f.created[0].Type != TypePremiumExpiring {
		t.Errorf("winner = %q, want %q", f.created[0].Type, TypePremiumExpiring)
	}
	if f.sentID == nil {
		t.Error("attempt was not finalized as sent")
	}
}

func TestEngineQuietHoursSuppressReminders(t *testing.T) {
	f := newFakeWorld()
	// Lunch fallback window is open at 13:35
	now := time.Date(2025, 3, 10, 13, 35, 0, 0, time.UTC)
	f.settings.QuietHoursStart = 13 * 60
	f.settings.QuietHoursEnd = 15 * 60

	e := newTestEngine(f, Options{}, now)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}
	if len(f.created) != 0 {
		t.Fatalf("reminder inside quiet hours must be suppressed, got %v", f.created[0].Type)
	}

	// An important candidate is exempt and goes through anyway
	f.remaining = 0
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}
	if len(f.created) != 1 || f.created[0].Type != TypeUsageLow {
		t.Fatalf("expected %s during quiet hours, got %v", TypeUsageLow, f.created)
	}
}

func TestEngineQuietHoursAcrossTimezones(t *testing.T) {
	f := newFakeWorld()
	f.settings.Timezone = "Asia/Tokyo"
	f.settings.QuietHoursStart = 22 * 60
	f.settings.QuietHoursEnd = 7 * 60
	f.remaining = 1 // exempt candidate

	// 14:00 UTC is 23:00 in Tokyo: inside the quiet window
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	e := newTestEngine(f, Options{}, now)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 1 || f.created[0].Type != TypeUsageLow {
		t.Fatalf("exempt candidate must pass Tokyo quiet hours, got %v", f.created)
	}
}

func TestEngineDailyDedup(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0
	f.sentTodayTypes[TypeUsageLow] = true

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 0 {
		t.Fatalf("same type already sent today, expected no attempt, got %d", len(f.created))
	}
}

func TestEngineImportantToggleGatesBuilders(t *testing.T) {
	f := newFakeWorld()
	f.settings.ImportantEnabled = false
	f.remaining = 0 // would fire if the toggle were on

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 0 {
		t.Fatalf("important toggle off, expected no attempt, got %v", f.created[0].Type)
	}
}

func TestEngineNoActiveDevicesFailsAttempt(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0
	f.devices = nil

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 1 {
		t.Fatalf("expected one attempt, got %d", len(f.created))
	}
	if f.failedReason != "no active devices" {
		t.Errorf("failure reason = %q", f.failedReason)
	}
	if f.sentID != nil {
		t.Error("attempt must not be marked sent")
	}
	if len(f.sendCalls) != 0 {
		t.Error("transport must not be called without devices")
	}
}

func TestEngineBatchesDevicesAndDisablesDeadTokens(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0

	f.devices = nil
	for i := 0; i < 150; i++ {
		f.devices = append(f.devices, model.UserDevice{
			ID:        uuid.New(),
			PushToken: fmt.Sprintf("token-%d", i),
		})
	}
	dead := f.devices[149].ID

	f.sendFn = func(msgs []Message) ([]SendResult, error) {
		results := make([]SendResult, len(msgs))
		for i, m := range msgs {
			if m.Token == "token-149" {
				results[i] = SendResult{Unregistered: true}
				continue
			}
			results[i] = SendResult{OK: true, ReceiptID: "receipt-" + m.Token}
		}
		return results, nil
	}

	e := newTestEngine(f, Options{DeviceBatch: 100}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.sendCalls) != 2 {
		t.Fatalf("150 devices at batch size 100 = 2 calls, got %d", len(f.sendCalls))
	}
	if len(f.sendCalls[0]) != 100 || len(f.sendCalls[1]) != 50 {
		t.Errorf("chunk sizes = %d, %d", len(f.sendCalls[0]), len(f.sendCalls[1]))
	}
	if f.sentID == nil {
		t.Fatal("attempt must be marked sent despite the dead token")
	}
	if len(f.sentReceipts) != 149 {
		t.Errorf("receipts = %d, want 149", len(f.sentReceipts))
	}
	if len(f.disabled) != 1 || f.disabled[0] != dead {
		t.Errorf("disabled = %v, want exactly %v", f.disabled, dead)
	}
	if f.partialErr != nil {
		t.Errorf("unregistered tokens are not partial errors, got %q", *f.partialErr)
	}
}

func TestEnginePartialMessageErrors(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0
	f.devices = []model.UserDevice{
		{ID: uuid.New(), PushToken: "token-ok"},
		{ID: uuid.New(), PushToken: "token-bad"},
	}
	f.sendFn = func(msgs []Message) ([]SendResult, error) {
		results := make([]SendResult, len(msgs))
		for i, m := range msgs {
			if m.Token == "token-bad" {
				results[i] = SendResult{Err: errors.New("throttled")}
				continue
			}
			results[i] = SendResult{OK: true, ReceiptID: "receipt-1"}
		}
		return results, nil
	}

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if f.sentID == nil {
		t.Fatal("attempt with at least one delivery must be marked sent")
	}
	if f.partialErr == nil || *f.partialErr != "throttled" {
		t.Errorf("partialErr = %v, want throttled", f.partialErr)
	}
	if len(f.disabled) != 0 {
		t.Error("transient errors must not disable devices")
	}
}

func TestEngineTransportFailureFailsAttempt(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0
	f.sendFn = func(msgs []Message) ([]SendResult, error) {
		return nil, errors.New("fcm unavailable")
	}

	e := newTestEngine(f, Options{}, noon)
	err := e.processUser(context.Background(), &f.user)
	if err == nil {
		t.Fatal("expected an error from a failed batch")
	}

	if f.failedReason != "fcm unavailable" {
		t.Errorf("failure reason = %q", f.failedReason)
	}
	if f.sentID != nil {
		t.Error("attempt must not be marked sent")
	}
}

func TestEngineDryRun(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0

	e := newTestEngine(f, Options{DryRun: true}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.sendCalls) != 0 {
		t.Error("dry run must not touch the transport")
	}
	if f.sentID == nil {
		t.Error("dry run still finalizes the attempt as sent")
	}
	if len(f.sentReceipts) != 0 {
		t.Errorf("dry run carries no receipts, got %v", f.sentReceipts)
	}
}

func TestEngineTickIsolatesUserFailures(t *testing.T) {
	f := newFakeWorld()
	f.remaining = 0
	f.sendFn = func(msgs []Message) ([]SendResult, error) {
		return nil, errors.New("boom")
	}

	e := newTestEngine(f, Options{}, noon)
	// Tick logs the per-user failure and must not panic
	e.Tick(context.Background())

	if f.failedReason != "boom" {
		t.Errorf("failure reason = %q", f.failedReason)
	}
}

func TestEngineBadTimezoneFallsBackToUTC(t *testing.T) {
	f := newFakeWorld()
	f.settings.Timezone = "Not/AZone"
	f.remaining = 0

	e := newTestEngine(f, Options{}, noon)
	if err := e.processUser(context.Background(), &f.user); err != nil {
		t.Fatal(err)
	}

	if len(f.created) != 1 {
		t.Fatalf("expected delivery with UTC fallback, got %d attempts", len(f.created))
	}
}
