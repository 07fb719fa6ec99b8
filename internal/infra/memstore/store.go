// Package memstore keeps checkout state in process memory. It mirrors the
// PostgreSQL store closely enough for local runs and tests: row locks are held
// until the unit of work ends and writes become visible only on commit.
package memstore

import (
	"context"
	"sync"

	"marketplace-checkout/internal/domain/cart"
	"marketplace-checkout/internal/domain/checkout"
	"marketplace-checkout/internal/domain/delivery"
	"marketplace-checkout/internal/domain/order"

	"github.com/google/uuid"
)

type notificationKey struct {
	orderID   uuid.UUID
	recipient order.Recipient
}

type Store struct {
	mu sync.RWMutex

	products map[uuid.UUID]cart.Product
	areas    map[uuid.UUID]delivery.Area

	sessions         map[uuid.UUID]*checkout.Session
	sessionsByPayRef map[string]uuid.UUID
	orders           map[uuid.UUID]*order.Order
	ordersBySession  map[uuid.UUID]uuid.UUID
	notifications    map[notificationKey]order.Notification

	locks *lockTable
}

func New() *Store {
	return &Store{
		products:         make(map[uuid.UUID]cart.Product),
		areas:            make(map[uuid.UUID]delivery.Area),
		sessions:         make(map[uuid.UUID]*checkout.Session),
		sessionsByPayRef: make(map[string]uuid.UUID),
		orders:           make(map[uuid.UUID]*order.Order),
		ordersBySession:  make(map[uuid.UUID]uuid.UUID),
		notifications:    make(map[notificationKey]order.Notification),
		locks:            newLockTable(),
	}
}

func (s *Store) AddProduct(p cart.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) AddDeliveryArea(a delivery.Area) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areas[a.ID] = a
}

func cloneSession(src *checkout.Session) *checkout.Session {
	c := *src
	return &c
}

// lockTable hands out one exclusive lock per key. Waiting respects ctx.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*keyLock)}
}

func (t *lockTable) acquire(ctx context.Context, key string) error {
	t.mu.Lock()
	l, ok := t.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		t.locks[key] = l
	}
	l.refs++
	t.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		t.drop(key, l)
		return ctx.Err()
	}
}

func (t *lockTable) release(key string) {
	t.mu.Lock()
	l := t.locks[key]
	t.mu.Unlock()
	if l == nil {
		return
	}
	<-l.ch
	t.drop(key, l)
}

func (t *lockTable) drop(key string, l *keyLock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, key)
	}
}
