// Package services holds the synchronized collection manager: the live,
// per-identity mirror of expenses, family members and budgets, and the
// write-through mutations on them.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/session"
	"gharkharcha/internal/store"

	"go.uber.org/zap"
)

const defaultSummaryTimeout = 10 * time.Second

// ChangeKind names what changed in the manager's state.
type ChangeKind string

const (
	ChangeIdentity      ChangeKind = "session"
	ChangeExpenses      ChangeKind = "expenses"
	ChangeFamilyMembers ChangeKind = "familyMembers"
	ChangeBudgets       ChangeKind = "budgets"
	ChangeLoading       ChangeKind = "loading"
)

// State is a consistent copy of everything the manager mirrors.
type State struct {
	Identity      *models.Identity      `json:"identity"`
	Expenses      []models.Expense      `json:"expenses"`
	FamilyMembers []models.FamilyMember `json:"family_members"`
	Budgets       []models.Budget       `json:"budgets"`
	Loading       bool                  `json:"loading"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) { m.log = log }
}

// WithSummaryTimeout bounds one-shot summary queries.
func WithSummaryTimeout(d time.Duration) Option {
	return func(m *Manager) { m.summaryTimeout = d }
}

// Manager mirrors the signed-in identity's collections. Each snapshot from the
// store replaces its collection wholesale; mutations go to the store and only
// become visible once the store delivers them back.
//
// Every identity change bumps a generation counter under the lock, so
// snapshots for a previous identity that arrive late are dropped.
type Manager struct {
	store          store.RecordStore
	now            func() time.Time
	log            *zap.SugaredLogger
	summaryTimeout time.Duration

	mu        sync.RWMutex
	gen       uint64
	identity  *models.Identity
	expenses  []models.Expense
	members   []models.FamilyMember
	budgets   []models.Budget
	pending   map[store.Collection]bool
	loading   bool
	unsubs    []store.Unsubscribe
	listeners map[uint64]func(ChangeKind)
	nextID    uint64
	detach    func()
}

// NewManager returns a signed-out manager over st.
func NewManager(st store.RecordStore, opts ...Option) *Manager {
	m := &Manager{
		store:          st,
		now:            time.Now,
		log:            zap.NewNop().Sugar(),
		summaryTimeout: defaultSummaryTimeout,
		listeners:      map[uint64]func(ChangeKind){},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach follows provider's identity until the returned function is called.
func (m *Manager) Attach(provider session.Provider) (detach func()) {
	cancel := provider.Watch(func(id *models.Identity) {
		if err := m.SetIdentity(context.Background(), id); err != nil {
			m.log.Errorw("Failed to open subscriptions", "error", err)
		}
	})
	m.mu.Lock()
	m.detach = cancel
	m.mu.Unlock()
	return cancel
}

// Close detaches from the identity provider and cancels every subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	detach := m.detach
	m.detach = nil
	m.mu.Unlock()
	if detach != nil {
		detach()
	}
	_ = m.SetIdentity(context.Background(), nil)
}

type subscriptionSpec struct {
	collection store.Collection
	query      store.Query
}

func subscriptionsFor(uid string) []subscriptionSpec {
	owned := []store.Filter{store.Where(store.FieldUserID, store.OpEqual, uid)}
	return []subscriptionSpec{
		{store.Expenses, store.Query{
			Collection: store.Expenses,
			Filters:    owned,
			OrderBy:    []store.Order{{Field: store.FieldDate, Descending: true}},
		}},
		{store.FamilyMembers, store.Query{Collection: store.FamilyMembers, Filters: owned}},
		{store.Budgets, store.Query{Collection: store.Budgets, Filters: owned}},
	}
}

// SetIdentity tears down the current session and, for a non-nil identity,
// opens the three owner-scoped subscriptions. Setting the identity that is
// already active only refreshes its profile fields.
func (m *Manager) SetIdentity(ctx context.Context, id *models.Identity) error {
	m.mu.Lock()
	if id != nil && m.identity != nil && m.identity.UID == id.UID && len(m.unsubs) > 0 {
		profile := *id
		m.identity = &profile
		m.mu.Unlock()
		m.notify(ChangeIdentity)
		return nil
	}

	m.gen++
	gen := m.gen
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.expenses, m.members, m.budgets = nil, nil, nil
	m.identity = nil
	m.loading = false
	m.pending = nil
	if id != nil {
		profile := *id
		m.identity = &profile
		m.loading = true
		m.pending = map[store.Collection]bool{store.Expenses: true, store.FamilyMembers: true, store.Budgets: true}
	}
	m.mu.Unlock()

	m.notify(ChangeIdentity, ChangeExpenses, ChangeFamilyMembers, ChangeBudgets, ChangeLoading)
	if id == nil {
		m.log.Infow("Session cleared")
		return nil
	}

	ctx = store.WithOwner(ctx, id.UID)
	opened := make([]store.Unsubscribe, 0, 3)
	for _, spec := range subscriptionsFor(id.UID) {
		unsub, err := m.store.Subscribe(ctx, spec.query, m.onSnapshot(gen, spec.collection))
		if err != nil {
			for _, u := range opened {
				u()
			}
			m.mu.Lock()
			if m.gen == gen {
				m.loading = false
				m.pending = nil
			}
			m.mu.Unlock()
			m.notify(ChangeLoading)
			m.log.Errorw("Subscription failed", "collection", spec.collection, "uid", id.UID, "error", err)
			return apperrors.Wrap(apperrors.ErrStoreOperationFailed, err)
		}
		opened = append(opened, unsub)
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		for _, u := range opened {
			u()
		}
		return nil
	}
	m.unsubs = opened
	m.mu.Unlock()

	m.log.Infow("Session started", "uid", id.UID)
	return nil
}

func (m *Manager) onSnapshot(gen uint64, c store.Collection) func(store.Snapshot) {
	return func(snap store.Snapshot) {
		if snap.Err != nil {
			m.log.Warnw("Snapshot delivery failed, keeping previous contents", "collection", c, "error", snap.Err)
			if m.markDelivered(gen, c) {
				m.notify(ChangeLoading)
			}
			return
		}

		var changed ChangeKind
		var apply func()
		switch c {
		case store.Expenses:
			items := decodeAll(m.log, snap.Documents, decodeExpense)
			changed, apply = ChangeExpenses, func() { m.expenses = items }
		case store.FamilyMembers:
			items := decodeAll(m.log, snap.Documents, decodeFamilyMember)
			changed, apply = ChangeFamilyMembers, func() { m.members = items }
		case store.Budgets:
			items := decodeAll(m.log, snap.Documents, decodeBudget)
			changed, apply = ChangeBudgets, func() { m.budgets = items }
		default:
			return
		}

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			m.log.Debugw("Dropping snapshot from a previous session", "collection", c)
			return
		}
		apply()
		loadingChanged := m.markDeliveredLocked(c)
		m.mu.Unlock()

		if loadingChanged {
			m.notify(changed, ChangeLoading)
			return
		}
		m.notify(changed)
	}
}

func (m *Manager) markDelivered(gen uint64, c store.Collection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	return m.markDeliveredLocked(c)
}

// markDeliveredLocked records the first snapshot of c and reports whether
// loading finished.
func (m *Manager) markDeliveredLocked(c store.Collection) bool {
	if !m.pending[c] {
		return false
	}
	delete(m.pending, c)
	if len(m.pending) == 0 && m.loading {
		m.loading = false
		return true
	}
	return false
}

// OnChange registers fn to be called after every state change. Calls happen
// on the goroutine that caused the change, outside the manager's lock.
func (m *Manager) OnChange(fn func(ChangeKind)) (cancel func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify(kinds ...ChangeKind) {
	m.mu.RLock()
	fns := make([]func(ChangeKind), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, kind := range kinds {
		for _, fn := range fns {
			fn(kind)
		}
	}
}

// Identity returns the active identity, or nil.
func (m *Manager) Identity() *models.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

// Loading reports whether the first snapshots are still outstanding.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Expenses returns the mirrored expenses, newest first.
func (m *Manager) Expenses() []models.Expense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneExpenses(m.expenses)
}

// FamilyMembers returns the mirrored family members.
func (m *Manager) FamilyMembers() []models.FamilyMember {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.FamilyMember{}, m.members...)
}

// Budgets returns the mirrored budgets.
func (m *Manager) Budgets() []models.Budget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneBudgets(m.budgets)
}

// State returns a consistent copy of the whole mirror.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := State{
		Expenses:      cloneExpenses(m.expenses),
		FamilyMembers: append([]models.FamilyMember{}, m.members...),
		Budgets:       cloneBudgets(m.budgets),
		Loading:       m.loading,
	}
	if m.identity != nil {
		id := *m.identity
		st.Identity = &id
	}
	return st
}

func cloneExpenses(in []models.Expense) []models.Expense {
	out := make([]models.Expense, len(in))
	for i, e := range in {
		e.Tags = append([]string{}, e.Tags...)
		out[i] = e
	}
	return out
}

func cloneBudgets(in []models.Budget) []models.Budget {
	out := make([]models.Budget, len(in))
	for i, b := range in {
		if b.EndDate != nil {
			end := *b.EndDate
			b.EndDate = &end
		}
		out[i] = b
	}
	return out
}

// owner returns the uid of the active identity.
func (m *Manager) owner() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return "", false
	}
	return m.identity.UID, true
}

// storeError maps a store failure onto the application error taxonomy.
func (m *Manager) storeError(op string, err error, notFound *apperrors.AppError) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.Wrap(notFound, err)
	}
	if errors.Is(err, store.ErrPermissionDenied) {
		m.log.Warnw("Store rejected write for another household", "op", op)
		return apperrors.Wrap(apperrors.ErrForbidden, err)
	}
	m.log.Errorw("Store operation failed", "op", op, "error", err)
	return apperrors.Wrap(apperrors.ErrStoreOperationFailed, err)
}
