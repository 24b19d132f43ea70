package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/inquiry-service/internal/domain"
	"github.com/spec-kit/inquiry-service/internal/events"
	"github.com/spec-kit/inquiry-service/internal/ratelimit"
	"github.com/spec-kit/inquiry-service/internal/repository"
	"github.com/spec-kit/inquiry-service/internal/sms"
	"github.com/spec-kit/inquiry-service/internal/storage"
)

type fakeInquiryRepo struct {
	mu       sync.Mutex
	items    map[string]*domain.Inquiry
	setErrOn func(confirmed bool) error
}

func newFakeInquiryRepo() *fakeInquiryRepo {
	return &fakeInquiryRepo{items: make(map[string]*domain.Inquiry)}
}

func (r *fakeInquiryRepo) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	inquiry.CreatedAt = time.Now()
	clone := *inquiry
	r.items[inquiry.ID] = &clone
	return nil
}

func (r *fakeInquiryRepo) GetByID(ctx context.Context, id string) (*domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *item
	return &clone, nil
}

func (r *fakeInquiryRepo) List(ctx context.Context, filter repository.InquiryFilter) ([]domain.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Inquiry, 0, len(r.items))
	for _, item := range r.items {
		if filter.Confirmed != nil && item.Confirmed != *filter.Confirmed {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *fakeInquiryRepo) Update(ctx context.Context, id string, update domain.InquiryUpdate, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if update.Confirmed != nil {
		item.Confirmed = *update.Confirmed
	}
	if update.Status != nil {
		item.Status = *update.Status
	}
	if update.Notes != nil {
		item.Notes = update.Notes
	}
	if update.AssignedTo != nil {
		item.AssignedTo = update.AssignedTo
	}
	item.UpdatedBy = &updatedBy
	return nil
}

func (r *fakeInquiryRepo) SetConfirmed(ctx context.Context, id string, confirmed bool, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErrOn != nil {
		if err := r.setErrOn(confirmed); err != nil {
			return err
		}
	}
	item, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Confirmed = confirmed
	item.UpdatedBy = &updatedBy
	return nil
}

func (r *fakeInquiryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type fakeCounter struct {
	value int64
	err   error
}

func (c *fakeCounter) NextSequence(ctx context.Context) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return atomic.AddInt64(&c.value, 1), nil
}

type fakeLimiter struct {
	allowed bool
}

func (l *fakeLimiter) Allow(key string, limit int) ratelimit.Decision {
	return ratelimit.Decision{Allowed: l.allowed, Limit: limit}
}

type fakeAssessor struct {
	score float64
	err   error
	calls int32
}

func (a *fakeAssessor) Assess(ctx context.Context, token string) (float64, error) {
	atomic.AddInt32(&a.calls, 1)
	if a.err != nil {
		return 0, a.err
	}
	return a.score, nil
}

type fakeObjectStore struct {
	mu        sync.Mutex
	objects   map[string]bool
	deleted   []string
	deleteErr map[string]error
	signErr   error
	existsErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects:   make(map[string]bool),
		deleteErr: make(map[string]error),
	}
}

func (s *fakeObjectStore) SignedURL(ctx context.Context, key string, method storage.Method, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://signed.example/" + string(method) + "/" + key, nil
}

func (s *fakeObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key], nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErr[key]; err != nil {
		return err
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeSender struct {
	mu       sync.Mutex
	messages []sms.Message
	err      error
}

func (s *fakeSender) Send(ctx context.Context, msg sms.Message) (*sms.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.messages = append(s.messages, msg)
	return &sms.Result{MessageID: "m-1", SuccessCount: 1}, nil
}

func (s *fakeSender) sent() []sms.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sms.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *capturingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
