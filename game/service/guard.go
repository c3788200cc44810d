package service

import (
	"hash/fnv"
	"sync"
)

const guardStripes = 64

// roomGuard serialises the multi-step sequences that touch one room. Rooms
// hash onto a fixed set of mutexes, so two rooms may share a stripe. A
// caller that needs two rooms takes them through lockPair, which orders the
// stripes by index.
type roomGuard struct {
	stripes [guardStripes]sync.Mutex
}

func (g *roomGuard) lock(roomID string) func() {
	mu := &g.stripes[stripe(roomID)]
	mu.Lock()
	return mu.Unlock
}

// lockPair holds the stripes of both rooms. An empty a locks b alone.
func (g *roomGuard) lockPair(a, b string) func() {
	if a == "" {
		return g.lock(b)
	}
	i, j := stripe(a), stripe(b)
	if i == j {
		return g.lock(b)
	}
	if i > j {
		i, j = j, i
	}
	first, second := &g.stripes[i], &g.stripes[j]
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

func stripe(roomID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomID))
	return h.Sum32() % guardStripes
}
