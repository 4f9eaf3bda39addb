package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lokapasar/lokapasar/internal/shared"
)

type contentRow struct {
	id        int64
	table     string
	shopID    int64
	userID    int64
	deletedAt *time.Time
}

// memoryStore simulates the transactional store. WithTx serializes callers
// and restores a snapshot when the callback fails, which mirrors what a
// rolled-back database transaction observes.
type memoryStore struct {
	mu       sync.Mutex
	users    map[int64]UserState
	shops    map[int64]ShopState
	warnings map[int64]Warning
	strikes  map[int64]Strike
	content  map[int64]contentRow
	audits   []shared.AuditLog
	nextID   int64

	failAudit bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    make(map[int64]UserState),
		shops:    make(map[int64]ShopState),
		warnings: make(map[int64]Warning),
		strikes:  make(map[int64]Strike),
		content:  make(map[int64]contentRow),
	}
}

func (m *memoryStore) snapshot() *memoryStore {
	clone := newMemoryStore()
	for k, v := range m.users {
		clone.users[k] = v
	}
	for k, v := range m.shops {
		clone.shops[k] = v
	}
	for k, v := range m.warnings {
		clone.warnings[k] = v
	}
	for k, v := range m.strikes {
		clone.strikes[k] = v
	}
	for k, v := range m.content {
		clone.content[k] = v
	}
	clone.audits = append([]shared.AuditLog(nil), m.audits...)
	clone.nextID = m.nextID
	return clone
}

func (m *memoryStore) restore(from *memoryStore) {
	m.users, m.shops = from.users, from.shops
	m.warnings, m.strikes = from.warnings, from.strikes
	m.content, m.audits, m.nextID = from.content, from.audits, from.nextID
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(before)
		return err
	}
	return nil
}

func (m *memoryStore) GetUserState(ctx context.Context, userID int64) (UserState, error) {
	state, ok := m.users[userID]
	if !ok {
		return UserState{}, shared.ErrNotFound
	}
	return state, nil
}

func (m *memoryStore) InsertWarning(ctx context.Context, warning Warning) (Warning, error) {
	m.nextID++
	warning.ID = m.nextID
	warning.CreatedAt = time.Now()
	m.warnings[warning.ID] = warning
	return warning, nil
}

func (m *memoryStore) ListWarnings(ctx context.Context, userID int64) ([]Warning, error) {
	var out []Warning
	for _, w := range m.warnings {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memoryStore) IncrementWarningCount(ctx context.Context, userID int64) (int, error) {
	state, ok := m.users[userID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	state.WarningCount++
	m.users[userID] = state
	return state.WarningCount, nil
}

func (m *memoryStore) SetUserBlocked(ctx context.Context, userID int64, reason string) error {
	state := m.users[userID]
	state.IsBlocked, state.BlockedReason = true, reason
	m.users[userID] = state
	return nil
}

func (m *memoryStore) ClearUserBlocked(ctx context.Context, userID int64) error {
	state := m.users[userID]
	state.IsBlocked, state.BlockedReason, state.WarningCount = false, "", 0
	m.users[userID] = state
	return nil
}

func (m *memoryStore) SetUserVerified(ctx context.Context, userID int64) (bool, error) {
	state := m.users[userID]
	if state.IsVerified {
		return false, nil
	}
	state.IsVerified = true
	m.users[userID] = state
	return true, nil
}

func (m *memoryStore) GetShopState(ctx context.Context, shopID int64) (ShopState, error) {
	state, ok := m.shops[shopID]
	if !ok {
		return ShopState{}, shared.ErrNotFound
	}
	return state, nil
}

func (m *memoryStore) InsertStrike(ctx context.Context, strike Strike) (Strike, error) {
	m.nextID++
	strike.ID = m.nextID
	strike.CreatedAt = time.Now()
	m.strikes[strike.ID] = strike
	return strike, nil
}

func (m *memoryStore) ListStrikes(ctx context.Context, shopID int64) ([]Strike, error) {
	var out []Strike
	for _, s := range m.strikes {
		if s.ShopID == shopID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) IncrementStrikeCount(ctx context.Context, shopID int64) (int, error) {
	state, ok := m.shops[shopID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	state.StrikeCount++
	m.shops[shopID] = state
	return state.StrikeCount, nil
}

func (m *memoryStore) SetShopBlocked(ctx context.Context, shopID int64, reason string) error {
	state := m.shops[shopID]
	state.IsBlocked, state.BlockedReason = true, reason
	m.shops[shopID] = state
	return nil
}

func (m *memoryStore) ClearShopBlocked(ctx context.Context, shopID int64) error {
	state := m.shops[shopID]
	state.IsBlocked, state.BlockedReason, state.StrikeCount = false, "", 0
	m.shops[shopID] = state
	return nil
}

func (m *memoryStore) SetShopVerification(ctx context.Context, shopID int64, status, reason string) error {
	state, ok := m.shops[shopID]
	if !ok {
		return shared.ErrNotFound
	}
	state.VerificationStatus = status
	m.shops[shopID] = state
	return nil
}

func (m *memoryStore) MarkUserDeleted(ctx context.Context, userID int64, stamp time.Time) (int64, error) {
	state, ok := m.users[userID]
	if !ok || state.DeletedAt != nil {
		return 0, nil
	}
	state.DeletedAt = &stamp
	m.users[userID] = state
	return 1, nil
}

func (m *memoryStore) RestoreUserRow(ctx context.Context, userID int64) (int64, error) {
	state, ok := m.users[userID]
	if !ok || state.DeletedAt == nil {
		return 0, nil
	}
	state.DeletedAt = nil
	m.users[userID] = state
	return 1, nil
}

func (m *memoryStore) MarkShopDeleted(ctx context.Context, shopID int64, stamp time.Time) (int64, error) {
	state, ok := m.shops[shopID]
	if !ok || state.DeletedAt != nil {
		return 0, nil
	}
	state.DeletedAt = &stamp
	m.shops[shopID] = state
	return 1, nil
}

func (m *memoryStore) RestoreShopRow(ctx context.Context, shopID int64) (int64, error) {
	state, ok := m.shops[shopID]
	if !ok || state.DeletedAt == nil {
		return 0, nil
	}
	state.DeletedAt = nil
	m.shops[shopID] = state
	return 1, nil
}

func (m *memoryStore) MarkShopsDeletedByOwner(ctx context.Context, ownerID int64, stamp time.Time) ([]int64, error) {
	var ids []int64
	for id, shop := range m.shops {
		if shop.OwnerID == ownerID && shop.DeletedAt == nil {
			shop.DeletedAt = &stamp
			m.shops[id] = shop
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memoryStore) RestoreShopsByOwner(ctx context.Context, ownerID int64, stamp time.Time) ([]int64, error) {
	var ids []int64
	for id, shop := range m.shops {
		if shop.OwnerID == ownerID && shop.DeletedAt != nil && shop.DeletedAt.Equal(stamp) {
			shop.DeletedAt = nil
			m.shops[id] = shop
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memoryStore) MarkShopDependentsDeleted(ctx context.Context, shopIDs []int64, stamp time.Time) (int64, error) {
	var total int64
	for id, row := range m.content {
		if row.table == "comments" || row.deletedAt != nil {
			continue
		}
		for _, shopID := range shopIDs {
			if row.shopID == shopID {
				row.deletedAt = &stamp
				m.content[id] = row
				total++
				break
			}
		}
	}
	return total, nil
}

func (m *memoryStore) RestoreShopDependents(ctx context.Context, shopIDs []int64, stamp time.Time) (int64, error) {
	var total int64
	for id, row := range m.content {
		if row.table == "comments" || row.deletedAt == nil || !row.deletedAt.Equal(stamp) {
			continue
		}
		for _, shopID := range shopIDs {
			if row.shopID == shopID {
				row.deletedAt = nil
				m.content[id] = row
				total++
				break
			}
		}
	}
	return total, nil
}

func (m *memoryStore) MarkUserContentDeleted(ctx context.Context, userID int64, stamp time.Time) (int64, error) {
	var total int64
	for id, row := range m.content {
		if (row.table == "posts" || row.table == "comments") && row.userID == userID && row.deletedAt == nil {
			row.deletedAt = &stamp
			m.content[id] = row
			total++
		}
	}
	return total, nil
}

func (m *memoryStore) RestoreUserContent(ctx context.Context, userID int64, stamp time.Time) (int64, error) {
	var total int64
	for id, row := range m.content {
		if (row.table == "posts" || row.table == "comments") && row.userID == userID && row.deletedAt != nil && row.deletedAt.Equal(stamp) {
			row.deletedAt = nil
			m.content[id] = row
			total++
		}
	}
	return total, nil
}

func expired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && !expiresAt.After(now)
}

func (m *memoryStore) CountExpiredWarnings(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, w := range m.warnings {
		if expired(w.ExpiresAt, now) {
			total++
		}
	}
	return total, nil
}

func (m *memoryStore) CountExpiredStrikes(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, s := range m.strikes {
		if expired(s.ExpiresAt, now) {
			total++
		}
	}
	return total, nil
}

func (m *memoryStore) ReconcileWarningCounts(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for id, state := range m.users {
		if state.IsBlocked {
			continue
		}
		live := 0
		for _, w := range m.warnings {
			if w.UserID == id && !expired(w.ExpiresAt, now) {
				live++
			}
		}
		if state.WarningCount != live {
			state.WarningCount = live
			m.users[id] = state
			total++
		}
	}
	return total, nil
}

func (m *memoryStore) ReconcileStrikeCounts(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for id, state := range m.shops {
		if state.IsBlocked {
			continue
		}
		live := 0
		for _, s := range m.strikes {
			if s.ShopID == id && !expired(s.ExpiresAt, now) {
				live++
			}
		}
		if state.StrikeCount != live {
			state.StrikeCount = live
			m.shops[id] = state
			total++
		}
	}
	return total, nil
}

func (m *memoryStore) AppendAudit(ctx context.Context, log shared.AuditLog) error {
	if m.failAudit {
		return errors.New("audit store unavailable")
	}
	m.audits = append(m.audits, log)
	return nil
}

var _ Repository = (*memoryStore)(nil)

func (m *memoryStore) addUser(id int64) {
	m.users[id] = UserState{ID: id, IsActive: true}
}

func (m *memoryStore) addShop(id, ownerID int64) {
	m.shops[id] = ShopState{ID: id, OwnerID: ownerID, VerificationStatus: VerificationPending}
}

func (m *memoryStore) addContent(table string, shopID, userID int64) int64 {
	m.nextID++
	m.content[m.nextID] = contentRow{id: m.nextID, table: table, shopID: shopID, userID: userID}
	return m.nextID
}

func (m *memoryStore) auditActions() []string {
	out := make([]string, 0, len(m.audits))
	for _, a := range m.audits {
		out = append(out, a.Action)
	}
	return out
}

func newTrustService(store *memoryStore) *Service {
	return NewService(store, nil, 3, 3)
}

func TestIssueWarningBelowThreshold(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	svc := newTrustService(store)
	ctx := context.Background()

	result, err := svc.IssueWarning(ctx, 1, "spam listing", SeverityLow, 99, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.WarningCount)
	require.False(t, result.AutoBlocked)

	state, err := svc.UserState(ctx, 1)
	require.NoError(t, err)
	require.False(t, state.IsBlocked)
	require.Equal(t, []string{"warn_user"}, store.auditActions())
}

func TestThirdWarningAutoBlocks(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	svc := newTrustService(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := svc.IssueWarning(ctx, 1, "spam listing", SeverityLow, 99, nil)
		require.NoError(t, err)
		require.False(t, result.AutoBlocked)
	}

	result, err := svc.IssueWarning(ctx, 1, "spam listing", SeverityLow, 99, nil)
	require.NoError(t, err)
	require.Equal(t, 3, result.WarningCount)
	require.True(t, result.AutoBlocked)

	state, err := svc.UserState(ctx, 1)
	require.NoError(t, err)
	require.True(t, state.IsBlocked)
	require.Equal(t, "Automatically blocked after receiving 3 warnings", state.BlockedReason)

	// the escalation produces exactly one block entry on top of the warnings
	require.Equal(t, []string{"warn_user", "warn_user", "warn_user", "block_user"}, store.auditActions())
}

func TestWarningBeyondThresholdDoesNotReblock(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	svc := newTrustService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.IssueWarning(ctx, 1, "spam", SeverityMedium, 99, nil)
		require.NoError(t, err)
	}
	result, err := svc.IssueWarning(ctx, 1, "spam again", SeverityMedium, 99, nil)
	require.NoError(t, err)
	require.Equal(t, 4, result.WarningCount)
	require.False(t, result.AutoBlocked)

	blocks := 0
	for _, action := range store.auditActions() {
		if action == "block_user" {
			blocks++
		}
	}
	require.Equal(t, 1, blocks)
}

func TestUnblockResetsWarningCount(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	svc := newTrustService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.IssueWarning(ctx, 1, "spam", SeverityMedium, 99, nil)
		require.NoError(t, err)
	}
	require.NoError(t, svc.UnblockUser(ctx, 1, 99))

	state, err := svc.UserState(ctx, 1)
	require.NoError(t, err)
	require.False(t, state.IsBlocked)
	require.Equal(t, 0, state.WarningCount)

	// the ladder starts over: the next warning is 1/3, no block
	result, err := svc.IssueWarning(ctx, 1, "spam", SeverityMedium, 99, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.WarningCount)
	require.False(t, result.AutoBlocked)
}

func TestWarningRollsBackWhenAuditFails(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.failAudit = true
	svc := newTrustService(store)

	_, err := svc.IssueWarning(context.Background(), 1, "spam", SeverityLow, 99, nil)
	require.Error(t, err)
	require.Equal(t, shared.KindTransaction, shared.KindOf(err))

	state, err := svc.UserState(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, state.WarningCount)
	warnings, err := store.ListWarnings(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestConcurrentWarningsLoseNoUpdates(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	svc := newTrustService(store)

	const issuers = 8
	errs := make(chan error, issuers)
	var wg sync.WaitGroup
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IssueWarning(context.Background(), 1, "spam", SeverityLow, 99, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	state, err := svc.UserState(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, issuers, state.WarningCount)
	require.True(t, state.IsBlocked)

	blocks := 0
	for _, action := range store.auditActions() {
		if action == "block_user" {
			blocks++
		}
	}
	require.Equal(t, 1, blocks)
}

func TestWarnDeletedUser(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	deleted := time.Now()
	state := store.users[1]
	state.DeletedAt = &deleted
	store.users[1] = state
	svc := newTrustService(store)

	_, err := svc.IssueWarning(context.Background(), 1, "spam", SeverityLow, 99, nil)
	require.ErrorIs(t, err, ErrUserDeleted)
}

func TestWarnUnknownUser(t *testing.T) {
	svc := newTrustService(newMemoryStore())
	_, err := svc.IssueWarning(context.Background(), 404, "spam", SeverityLow, 99, nil)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestThirdStrikeAutoBlocksShop(t *testing.T) {
	store := newMemoryStore()
	store.addShop(10, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := svc.IssueStrike(ctx, 10, "counterfeit goods", StrikeSeverityMajor, 99, nil)
		require.NoError(t, err)
		require.False(t, result.AutoBlocked)
	}
	result, err := svc.IssueStrike(ctx, 10, "counterfeit goods", StrikeSeverityMajor, 99, nil)
	require.NoError(t, err)
	require.Equal(t, 3, result.StrikeCount)
	require.True(t, result.AutoBlocked)

	state, err := svc.ShopState(ctx, 10)
	require.NoError(t, err)
	require.True(t, state.IsBlocked)
	require.Equal(t, "Shop automatically blocked after receiving 3 strikes", state.BlockedReason)
}

func TestUnblockShopThenStrikeStartsOver(t *testing.T) {
	store := newMemoryStore()
	store.addShop(10, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.IssueStrike(ctx, 10, "counterfeit", StrikeSeverityMajor, 99, nil)
		require.NoError(t, err)
	}
	require.NoError(t, svc.UnblockShop(ctx, 10, 99))

	result, err := svc.IssueStrike(ctx, 10, "late shipping", StrikeSeverityMinor, 99, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.StrikeCount)
	require.False(t, result.AutoBlocked)
}

func TestManualBlockConflicts(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	require.NoError(t, svc.BlockUser(ctx, 1, "fraud", 99))
	require.ErrorIs(t, svc.BlockUser(ctx, 1, "fraud", 99), ErrUserBlocked)
	require.NoError(t, svc.UnblockUser(ctx, 1, 99))
	require.ErrorIs(t, svc.UnblockUser(ctx, 1, 99), ErrUserNotBlocked)

	require.ErrorIs(t, svc.UnblockShop(ctx, 10, 99), ErrShopNotBlocked)
	require.NoError(t, svc.BlockShop(ctx, 10, "", 99))
	state, err := svc.ShopState(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "blocked by administrator", state.BlockedReason)
	require.ErrorIs(t, svc.BlockShop(ctx, 10, "again", 99), ErrShopBlocked)
}

func TestVerifyUser(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	svc := newTrustService(store)
	ctx := context.Background()

	require.NoError(t, svc.VerifyUser(ctx, 1, 99))
	require.ErrorIs(t, svc.VerifyUser(ctx, 1, 99), ErrAlreadyVerified)

	state, err := svc.UserState(ctx, 1)
	require.NoError(t, err)
	require.True(t, state.IsVerified)
}

func TestSweepExpiredReconcilesCounters(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	_, err := svc.IssueWarning(ctx, 1, "old offense", SeverityLow, 99, &past)
	require.NoError(t, err)
	_, err = svc.IssueWarning(ctx, 1, "recent offense", SeverityHigh, 99, nil)
	require.NoError(t, err)
	_, err = svc.IssueStrike(ctx, 10, "old strike", StrikeSeverityMinor, 99, &past)
	require.NoError(t, err)

	result, err := svc.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), result.WarningsExpired)
	require.Equal(t, int64(1), result.StrikesExpired)

	state, err := svc.UserState(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, state.WarningCount)
	shop, err := svc.ShopState(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 0, shop.StrikeCount)
}

func TestSweepKeepsSanctionHistory(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	store.addShop(10, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	_, err := svc.IssueWarning(ctx, 1, "old offense", SeverityLow, 99, &past)
	require.NoError(t, err)
	_, err = svc.IssueStrike(ctx, 10, "old strike", StrikeSeverityMinor, 99, &past)
	require.NoError(t, err)

	_, err = svc.SweepExpired(ctx, time.Now())
	require.NoError(t, err)

	// the record survives as history; only the live counter resets
	warnings, err := svc.Warnings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, "old offense", warnings[0].Reason)

	strikes, err := svc.Strikes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, strikes, 1)

	state, err := svc.UserState(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 0, state.WarningCount)

	// a second sweep converges without touching the history
	result, err := svc.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), result.WarningsExpired)
	require.Equal(t, int64(0), result.UsersReconciled)
	warnings, err = svc.Warnings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}

func TestWarningCarriesSeverity(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	svc := newTrustService(store)
	ctx := context.Background()

	result, err := svc.IssueWarning(ctx, 1, "harassment", SeverityHigh, 99, nil)
	require.NoError(t, err)
	require.Equal(t, SeverityHigh, result.Warning.Severity)

	warnings, err := svc.Warnings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, SeverityHigh, warnings[0].Severity)
	require.Equal(t, SeverityHigh, store.audits[0].Meta["severity"])

	// empty severity falls back to low rather than an empty record
	result, err = svc.IssueWarning(ctx, 1, "spam", "", 99, nil)
	require.NoError(t, err)
	require.Equal(t, SeverityLow, result.Warning.Severity)
}

func TestStrikeCarriesSeverity(t *testing.T) {
	store := newMemoryStore()
	store.addShop(10, 1)
	svc := newTrustService(store)

	result, err := svc.IssueStrike(context.Background(), 10, "counterfeit", StrikeSeverityCritical, 99, nil)
	require.NoError(t, err)
	require.Equal(t, StrikeSeverityCritical, result.Strike.Severity)
	require.Equal(t, StrikeSeverityCritical, store.audits[0].Meta["severity"])
}

func TestShopVerificationLifecycle(t *testing.T) {
	store := newMemoryStore()
	store.addShop(10, 1)
	svc := newTrustService(store)
	ctx := context.Background()

	require.NoError(t, svc.VerifyShop(ctx, 10, 99))
	state, err := svc.ShopState(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, VerificationVerified, state.VerificationStatus)
	require.ErrorIs(t, svc.VerifyShop(ctx, 10, 99), ErrShopVerified)

	require.NoError(t, svc.RejectShop(ctx, 10, "incomplete documents", 99))
	state, err = svc.ShopState(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, VerificationRejected, state.VerificationStatus)
	require.ErrorIs(t, svc.RejectShop(ctx, 10, "again", 99), ErrShopRejected)

	require.Equal(t, []string{"verify_shop", "reject_shop"}, store.auditActions())
}

func TestRejectShopUnknown(t *testing.T) {
	svc := newTrustService(newMemoryStore())
	err := svc.RejectShop(context.Background(), 404, "", 99)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestSweepLeavesBlockedCountersAlone(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	svc := newTrustService(store)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := svc.IssueWarning(ctx, 1, "offense", SeverityLow, 99, &past)
		require.NoError(t, err)
	}

	_, err := svc.SweepExpired(ctx, time.Now())
	require.NoError(t, err)

	state, err := svc.UserState(ctx, 1)
	require.NoError(t, err)
	require.True(t, state.IsBlocked)
	require.Equal(t, 3, state.WarningCount)
}
