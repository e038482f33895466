//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"coursepay/internal/domain"
	"coursepay/internal/domain/model"
	"coursepay/internal/domain/ports/adapter"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// mockGateway is a scriptable PSP gateway for unit tests.
type mockGateway struct {
	initiateURL string
	initiateErr error
	status      adapter.StatusResult
	statusErr   error

	mu            sync.Mutex
	initiateCalls int
	statusCalls   int
	lastInitiate  adapter.InitiateRequest
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) InitiatePayment(ctx context.Context, req adapter.InitiateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initiateCalls++
	g.lastInitiate = req
	if g.initiateErr != nil {
		return "", g.initiateErr
	}
	return g.initiateURL, nil
}

func (g *mockGateway) FetchStatus(ctx context.Context, transactionID string) (adapter.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls++
	if g.statusErr != nil {
		return adapter.StatusResult{}, g.statusErr
	}
	return g.status, nil
}

// memEnrollmentRepo is a small in-memory implementation used by unit tests.
// Like the real table it is keyed by transaction id, so duplicate inserts
// are no-ops.
type memEnrollmentRepo struct {
	mu      sync.Mutex
	store   map[string]*model.EnrollmentRecord // by TransactionID
	saveErr error
	saved   chan struct{} // signals each Save, for async side-effect tests
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{
		store: make(map[string]*model.EnrollmentRecord),
		saved: make(chan struct{}, 16),
	}
}

func (m *memEnrollmentRepo) Save(ctx context.Context, rec *model.EnrollmentRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[rec.TransactionID]; !exists {
		cp := *rec
		m.store[rec.TransactionID] = &cp
	}
	select {
	case m.saved <- struct{}{}:
	default:
	}
	return nil
}

func (m *memEnrollmentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func (m *memEnrollmentRepo) byTxn(txnID string) *model.EnrollmentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[txnID]
}

// memWebhookRepo keeps appended events in order.
type memWebhookRepo struct {
	mu        sync.Mutex
	events    []*model.WebhookEvent
	appendErr error
}

func newMemWebhookRepo() *memWebhookRepo {
	return &memWebhookRepo{}
}

func (m *memWebhookRepo) Append(ctx context.Context, ev *model.WebhookEvent) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	m.events = append(m.events, &cp)
	return nil
}

func (m *memWebhookRepo) FindByTransactionID(ctx context.Context, transactionID string) ([]*model.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.WebhookEvent
	for _, ev := range m.events {
		if ev.TransactionID != nil && *ev.TransactionID == transactionID {
			out = append(out, ev)
		}
	}
	if out == nil {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// mockNotifier records sent notifications.
type mockNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	ch   chan struct{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{ch: make(chan struct{}, 16)}
}

func (n *mockNotifier) Name() string { return "mock" }

func (n *mockNotifier) Send(ctx context.Context, msg model.Notification) error {
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
	select {
	case n.ch <- struct{}{}:
	default:
	}
	return nil
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
