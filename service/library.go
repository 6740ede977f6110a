package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// TemplateLibrary is the persisted set of reference clause sets, one entry
// per agreement type. Put has upsert semantics and is atomic per key: a
// reader never observes a half-written entry.
type TemplateLibrary interface {
	Get(ctx context.Context, t model.AgreementType) (*model.TemplateEntry, error)
	Put(ctx context.Context, entry *model.TemplateEntry) error
	Exists(ctx context.Context, t model.AgreementType) (bool, error)
}

// MemoryLibrary is an in-memory TemplateLibrary for tests and local runs.
type MemoryLibrary struct {
	mu      sync.RWMutex
	entries map[model.AgreementType]*model.TemplateEntry
}

func NewMemoryLibrary() *MemoryLibrary {
	return &MemoryLibrary{
		entries: make(map[model.AgreementType]*model.TemplateEntry),
	}
}

func (l *MemoryLibrary) Get(ctx context.Context, t model.AgreementType) (*model.TemplateEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, t)
	}
	copied := *entry
	return &copied, nil
}

func (l *MemoryLibrary) Put(ctx context.Context, entry *model.TemplateEntry) error {
	if !entry.AgreementType.Valid() {
		return fmt.Errorf("invalid agreement type: %q", entry.AgreementType)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	copied := *entry
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = time.Now()
	}
	l.entries[entry.AgreementType] = &copied
	return nil
}

func (l *MemoryLibrary) Exists(ctx context.Context, t model.AgreementType) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.entries[t]
	return ok, nil
}

// Count returns the number of stored entries.
func (l *MemoryLibrary) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
