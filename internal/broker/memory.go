// Package broker fans out session status snapshots to subscribers.
package broker

import (
	"sync"

	"github.com/mhpenta/datasetgen"
)

const defaultBufferSize = 16

// MemoryBroker delivers every published Status to all subscribers. A
// subscriber whose buffer is full misses that snapshot; the next one
// supersedes it anyway.
type MemoryBroker struct {
	subscribers map[string]chan datasetgen.Status
	bufferSize  int
	mu          sync.RWMutex
}

var _ datasetgen.Notifier = (*MemoryBroker)(nil)

func NewMemoryBroker(bufferSize int) *MemoryBroker {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &MemoryBroker{
		subscribers: make(map[string]chan datasetgen.Status),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers id and returns its channel. Subscribing an id twice
// replaces (and closes) the previous channel.
func (b *MemoryBroker) Subscribe(id string) <-chan datasetgen.Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[id]; ok {
		close(old)
	}
	ch := make(chan datasetgen.Status, b.bufferSize)
	b.subscribers[id] = ch
	return ch
}

func (b *MemoryBroker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish never blocks.
func (b *MemoryBroker) Publish(status datasetgen.Status) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- status:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (b *MemoryBroker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
