package memstore

import (
	"context"
	"slices"
	"sort"
	"time"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/order"
	"marketplace-checkout/internal/infra"
	"marketplace-checkout/internal/usecase/shared"

	"github.com/google/uuid"
)

type UoW struct {
	store *Store
}

func NewUoW(store *Store) *UoW {
	return &UoW{store: store}
}

// Within runs fn against staged state. Locks taken inside fn are held until
// the staged writes are committed or discarded.
func (u *UoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	tx := newMemTx(u.store)
	defer tx.unlockAll()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

func (u *UoW) CommandReads() shared.CommandReads {
	return catalogReads{store: u.store}
}

type statusChange struct {
	status    checkout.Status
	updatedAt time.Time
}

type memTx struct {
	store *Store
	held  []string

	newSessions   map[uuid.UUID]*checkout.Session
	statusChanges map[uuid.UUID]statusChange
	newOrders     map[uuid.UUID]*order.Order
	notifications map[notificationKey]order.Notification
}

func newMemTx(store *Store) *memTx {
	return &memTx{
		store:         store,
		newSessions:   make(map[uuid.UUID]*checkout.Session),
		statusChanges: make(map[uuid.UUID]statusChange),
		newOrders:     make(map[uuid.UUID]*order.Order),
		notifications: make(map[notificationKey]order.Notification),
	}
}

func (t *memTx) Sessions() shared.CheckoutSessionRepository { return sessionRepo{tx: t} }
func (t *memTx) Orders() shared.OrderRepository             { return orderRepo{tx: t} }
func (t *memTx) Notifications() shared.NotificationRepository {
	return notificationRepo{tx: t}
}

func (t *memTx) lock(ctx context.Context, key string) error {
	if slices.Contains(t.held, key) {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key); err != nil {
		return infra.WrapRepoErr("failed to acquire row lock", err)
	}
	t.held = append(t.held, key)
	return nil
}

func (t *memTx) unlockAll() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.store.locks.release(t.held[i])
	}
	t.held = nil
}

func sessionKey(id uuid.UUID) string { return "session:" + id.String() }

func notificationLockKey(k notificationKey) string {
	return "notification:" + k.orderID.String() + ":" + string(k.recipient)
}

// session returns the tx-visible state of a session, or nil.
func (t *memTx) session(id uuid.UUID) *checkout.Session {
	s, ok := t.newSessions[id]
	if !ok {
		t.store.mu.RLock()
		committed, found := t.store.sessions[id]
		t.store.mu.RUnlock()
		if !found {
			return nil
		}
		s = cloneSession(committed)
	} else {
		s = cloneSession(s)
	}
	if change, ok := t.statusChanges[id]; ok {
		s = checkout.ReconstructSession(s.ID(), s.Cart(), s.Delivery(), s.Total(), change.status,
			s.PaymentSessionID(), s.ExpiresAt(), s.CreatedAt(), change.updatedAt)
	}
	return s
}

func (t *memTx) orderBySession(sessionID uuid.UUID) *order.Order {
	for _, o := range t.newOrders {
		if o.CheckoutSessionID() == sessionID {
			return o
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if id, ok := t.store.ordersBySession[sessionID]; ok {
		return t.store.orders[id]
	}
	return nil
}

func (t *memTx) notification(k notificationKey) (order.Notification, bool) {
	if n, ok := t.notifications[k]; ok {
		return n, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	n, ok := t.store.notifications[k]
	return n, ok
}

// visibleNotifications merges committed records with this tx's staged ones.
func (t *memTx) visibleNotifications() []order.Notification {
	merged := make(map[notificationKey]order.Notification)
	t.store.mu.RLock()
	for k, n := range t.store.notifications {
		merged[k] = n
	}
	t.store.mu.RUnlock()
	for k, n := range t.notifications {
		merged[k] = n
	}

	out := make([]order.Notification, 0, len(merged))
	for _, n := range merged {
		out = append(out, n)
	}
	sortNotifications(out)
	return out
}

func (t *memTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range t.newSessions {
		if _, exists := s.sessions[id]; exists {
			return infra.WrapRepoErr("checkout session already exists", nil, infra.KindDuplicateKey)
		}
		if ref := sess.PaymentSessionID(); ref != "" {
			if _, exists := s.sessionsByPayRef[ref]; exists {
				return infra.WrapRepoErr("payment session already bound", nil, infra.KindDuplicateKey)
			}
		}
	}
	for _, o := range t.newOrders {
		if _, exists := s.ordersBySession[o.CheckoutSessionID()]; exists {
			return infra.WrapRepoErr("order already exists for checkout session", nil, infra.KindDuplicateKey)
		}
	}

	for id, sess := range t.newSessions {
		s.sessions[id] = sess
		if ref := sess.PaymentSessionID(); ref != "" {
			s.sessionsByPayRef[ref] = id
		}
	}
	for id, change := range t.statusChanges {
		cur, ok := s.sessions[id]
		if !ok {
			continue
		}
		s.sessions[id] = checkout.ReconstructSession(cur.ID(), cur.Cart(), cur.Delivery(), cur.Total(), change.status,
			cur.PaymentSessionID(), cur.ExpiresAt(), cur.CreatedAt(), change.updatedAt)
	}
	for id, o := range t.newOrders {
		s.orders[id] = o
		s.ordersBySession[o.CheckoutSessionID()] = id
	}
	for k, n := range t.notifications {
		s.notifications[k] = n
	}
	return nil
}

type sessionRepo struct{ tx *memTx }

func (r sessionRepo) Create(ctx context.Context, s *checkout.Session) error {
	if err := r.tx.lock(ctx, sessionKey(s.ID())); err != nil {
		return err
	}
	if r.tx.session(s.ID()) != nil {
		return infra.WrapRepoErr("checkout session already exists", nil, infra.KindDuplicateKey)
	}
	r.tx.newSessions[s.ID()] = cloneSession(s)
	return nil
}

func (r sessionRepo) LockByPaymentSessionID(ctx context.Context, paymentSessionID string) (*checkout.Session, error) {
	id, ok := r.tx.resolvePaymentRef(paymentSessionID)
	if !ok {
		return nil, infra.WrapRepoErr("checkout session not found", nil, infra.KindNotFound)
	}
	if err := r.tx.lock(ctx, sessionKey(id)); err != nil {
		return nil, err
	}
	s := r.tx.session(id)
	if s == nil {
		return nil, infra.WrapRepoErr("checkout session not found", nil, infra.KindNotFound)
	}
	return s, nil
}

func (r sessionRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []checkout.Status, next checkout.Status, updatedAt time.Time) (bool, error) {
	if err := r.tx.lock(ctx, sessionKey(id)); err != nil {
		return false, err
	}
	s := r.tx.session(id)
	if s == nil || !slices.Contains(from, s.Status()) {
		return false, nil
	}
	r.tx.statusChanges[id] = statusChange{status: next, updatedAt: updatedAt}
	return true, nil
}

func (t *memTx) resolvePaymentRef(ref string) (uuid.UUID, bool) {
	for id, s := range t.newSessions {
		if s.PaymentSessionID() == ref {
			return id, true
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	id, ok := t.store.sessionsByPayRef[ref]
	return id, ok
}

type orderRepo struct{ tx *memTx }

func (r orderRepo) Create(_ context.Context, o *order.Order) error {
	if r.tx.orderBySession(o.CheckoutSessionID()) != nil {
		return infra.WrapRepoErr("order already exists for checkout session", nil, infra.KindDuplicateKey)
	}
	r.tx.newOrders[o.ID()] = o
	return nil
}

func (r orderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	if o, ok := r.tx.newOrders[id]; ok {
		return o, nil
	}
	r.tx.store.mu.RLock()
	defer r.tx.store.mu.RUnlock()
	if o, ok := r.tx.store.orders[id]; ok {
		return o, nil
	}
	return nil, infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
}

func (r orderRepo) FindBySessionID(_ context.Context, sessionID uuid.UUID) (*order.Order, error) {
	if o := r.tx.orderBySession(sessionID); o != nil {
		return o, nil
	}
	return nil, infra.WrapRepoErr("order not found", nil, infra.KindNotFound)
}

type notificationRepo struct{ tx *memTx }

func (r notificationRepo) CreatePending(ctx context.Context, ns []order.Notification) error {
	for _, n := range ns {
		k := notificationKey{orderID: n.OrderID, recipient: n.Recipient}
		if err := r.tx.lock(ctx, notificationLockKey(k)); err != nil {
			return err
		}
		if _, exists := r.tx.notification(k); exists {
			continue
		}
		r.tx.notifications[k] = order.Notification{
			OrderID:   n.OrderID,
			Recipient: n.Recipient,
			Status:    order.NotificationPending,
		}
	}
	return nil
}

func (r notificationRepo) Claim(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, now, leaseUntil time.Time, maxAttempts int) (bool, error) {
	k := notificationKey{orderID: orderID, recipient: recipient}
	if err := r.tx.lock(ctx, notificationLockKey(k)); err != nil {
		return false, err
	}
	n, ok := r.tx.notification(k)
	if !ok || !n.Claimable(now, maxAttempts) {
		return false, nil
	}
	n.Status = order.NotificationSending
	n.Attempts++
	n.ClaimedUntil = &leaseUntil
	r.tx.notifications[k] = n
	return true, nil
}

func (r notificationRepo) MarkSent(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, sentAt time.Time) error {
	k := notificationKey{orderID: orderID, recipient: recipient}
	if err := r.tx.lock(ctx, notificationLockKey(k)); err != nil {
		return err
	}
	n, ok := r.tx.notification(k)
	if !ok {
		return nil
	}
	n.Status = order.NotificationSent
	n.SentAt = &sentAt
	n.LastError = nil
	n.ClaimedUntil = nil
	r.tx.notifications[k] = n
	return nil
}

func (r notificationRepo) MarkFailed(ctx context.Context, orderID uuid.UUID, recipient order.Recipient, lastError string) error {
	k := notificationKey{orderID: orderID, recipient: recipient}
	if err := r.tx.lock(ctx, notificationLockKey(k)); err != nil {
		return err
	}
	n, ok := r.tx.notification(k)
	if !ok || n.Status == order.NotificationSent {
		return nil
	}
	n.Status = order.NotificationFailed
	n.LastError = &lastError
	n.ClaimedUntil = nil
	r.tx.notifications[k] = n
	return nil
}

func (r notificationRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]order.Notification, error) {
	var out []order.Notification
	for _, n := range r.tx.visibleNotifications() {
		if n.OrderID == orderID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r notificationRepo) ListClaimable(_ context.Context, now time.Time, maxAttempts, limit int) ([]order.Notification, error) {
	var out []order.Notification
	for _, n := range r.tx.visibleNotifications() {
		if !n.Claimable(now, maxAttempts) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func sortNotifications(ns []order.Notification) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].OrderID != ns[j].OrderID {
			return ns[i].OrderID.String() < ns[j].OrderID.String()
		}
		return ns[i].Recipient < ns[j].Recipient
	})
}

type catalogReads struct {
	store *Store
}

func (c catalogReads) ProductsByIDs(_ context.Context, ids []uuid.UUID) ([]cart.Product, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	out := make([]cart.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.store.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c catalogReads) DeliveryAreaByID(_ context.Context, id uuid.UUID) (*delivery.Area, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	a, ok := c.store.areas[id]
	if !ok {
		return nil, infra.WrapRepoErr("delivery area not found", nil, infra.KindNotFound)
	}
	return &a, nil
}
