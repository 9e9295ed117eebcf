package service

import (
	"context"
	"sync"
)

// MemoryDrawGuard is the single-instance DrawGuard: a plain in-process lock
// table. Deployments running more than one instance should use the
// Redis-backed guard instead.
type MemoryDrawGuard struct {
	locks sync.Map
}

func NewMemoryDrawGuard() *MemoryDrawGuard {
	return &MemoryDrawGuard{}
}

func (g *MemoryDrawGuard) TryLock(_ context.Context, giveawayID int64) (bool, error) {
	_, loaded := g.locks.LoadOrStore(giveawayID, struct{}{})
	return !loaded, nil
}

func (g *MemoryDrawGuard) Unlock(_ context.Context, giveawayID int64) {
	g.locks.Delete(giveawayID)
}
