package application

import (
	"context"
	"sync"
	"time"

	"telegram-promo-bot/internal/domain"
	"telegram-promo-bot/internal/domain/model"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memPromoRepo mirrors the real store's constraints for facade-level tests.
type memPromoRepo struct {
	mu     sync.Mutex
	nextID int64
	byCode map[string]*model.PromoCode
	byUser map[int64]string
}

func newMemPromoRepo() *memPromoRepo {
	return &memPromoRepo{
		byCode: make(map[string]*model.PromoCode),
		byUser: make(map[int64]string),
	}
}

func (m *memPromoRepo) HasCode(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byUser[userID]
	return ok, nil
}

func (m *memPromoRepo) Insert(ctx context.Context, userID int64, code string) (*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[userID]; ok {
		return nil, domain.ErrAlreadyIssued
	}
	if _, ok := m.byCode[code]; ok {
		return nil, domain.ErrCodeCollision
	}
	m.nextID++
	pc := &model.PromoCode{ID: m.nextID, UserID: userID, Code: code, CreatedAt: time.Now()}
	m.byCode[code] = pc
	m.byUser[userID] = code
	cp := *pc
	return &cp, nil
}

func (m *memPromoRepo) FindByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pc
	return &cp, nil
}

func (m *memPromoRepo) MarkUsed(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc, ok := m.byCode[code]
	if !ok {
		return false, domain.ErrNotFound
	}
	if pc.Used {
		return false, nil
	}
	now := time.Now()
	pc.Used = true
	pc.UsedAt = &now
	return true, nil
}

func (m *memPromoRepo) Counts(ctx context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	used, unused := 0, 0
	for _, pc := range m.byCode {
		if pc.Used {
			used++
		} else {
			unused++
		}
	}
	return used, unused, nil
}

func (m *memPromoRepo) ExportAll(ctx context.Context) ([]model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PromoCode, 0, len(m.byCode))
	for _, pc := range m.byCode {
		out = append(out, *pc)
	}
	return out, nil
}

type memModeRepo struct {
	mu       sync.Mutex
	checking map[int64]bool
}

func newMemModeRepo() *memModeRepo {
	return &memModeRepo{checking: make(map[int64]bool)}
}

func (m *memModeRepo) SetChecking(ctx context.Context, operatorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checking[operatorID] = true
	return nil
}

func (m *memModeRepo) ClearChecking(ctx context.Context, operatorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checking, operatorID)
	return nil
}

func (m *memModeRepo) IsChecking(ctx context.Context, operatorID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checking[operatorID], nil
}

type fakeMembership struct {
	mu      sync.Mutex
	members map[int64]bool
}

func newFakeMembership(ids ...int64) *fakeMembership {
	f := &fakeMembership{members: make(map[int64]bool)}
	for _, id := range ids {
		f.members[id] = true
	}
	return f
}

func (f *fakeMembership) setMember(id int64, member bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = member
}

func (f *fakeMembership) IsMember(ctx context.Context, userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[userID]
}
