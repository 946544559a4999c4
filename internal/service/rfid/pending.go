package rfid

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL is how long a scan waits to be linked when no TTL is given.
const DefaultTTL = 10 * time.Minute

var (
	ErrInvalidUID   = errors.New("rfid uid is required")
	ErrScanNotFound = errors.New("pending scan not found")
	ErrScanExpired  = errors.New("pending scan expired")
)

// Scan is an RFID read waiting to be linked to a cow.
type Scan struct {
	RFIDUID   string    `json:"rfidUid"`
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type entry struct {
	scan  Scan
	index int
}

// expiryHeap is a min-heap of entries ordered by ExpiresAt.
type expiryHeap []*entry

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool {
	return h[i].scan.ExpiresAt.Before(h[j].scan.ExpiresAt)
}

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// PendingStore keeps pending scans keyed by uid with per-scan expiry. Expired
// scans are dropped lazily on access and in bulk by Sweep.
type PendingStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	queue   expiryHeap
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewPendingStore creates an empty store. Zero ttl means DefaultTTL and a nil
// clock means time.Now.
func NewPendingStore(ttl time.Duration, logger *zap.Logger, now func() time.Time) *PendingStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &PendingStore{
		entries: make(map[string]*entry),
		queue:   make(expiryHeap, 0),
		ttl:     ttl,
		now:     now,
		logger:  logger,
	}
}

// Put records a scan of uid, replacing any pending one, and returns it with a
// fresh token. A non-positive ttl uses the store default.
func (p *PendingStore) Put(uid string, ttl time.Duration) (Scan, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return Scan{}, ErrInvalidUID
	}
	if ttl <= 0 {
		ttl = p.ttl
	}

	now := p.now()
	scan := Scan{
		RFIDUID:   uid,
		Token:     uuid.NewString(),
		Timestamp: now,
		ExpiresAt: now.Add(ttl),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.entries[uid]; ok {
		existing.scan = scan
		heap.Fix(&p.queue, existing.index)
	} else {
		e := &entry{scan: scan}
		heap.Push(&p.queue, e)
		p.entries[uid] = e
	}

	p.logger.Debug("pending rfid scan stored", zap.String("rfid_uid", uid), zap.Time("expires_at", scan.ExpiresAt))
	return scan, nil
}

// Get returns the pending scan of uid. An expired scan is removed and
// reported as ErrScanExpired.
func (p *PendingStore) Get(uid string) (Scan, error) {
	uid = strings.TrimSpace(uid)

	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[uid]
	if !ok {
		return Scan{}, fmt.Errorf("%w: %s", ErrScanNotFound, uid)
	}
	if p.expired(e) {
		p.removeLocked(e)
		return Scan{}, fmt.Errorf("%w: %s", ErrScanExpired, uid)
	}
	return e.scan, nil
}

// List returns the live scans, newest first.
func (p *PendingStore) List() []Scan {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sweepLocked()
	scans := make([]Scan, 0, len(p.entries))
	for _, e := range p.entries {
		scans = append(scans, e.scan)
	}
	sort.Slice(scans, func(i, j int) bool {
		if !scans[i].Timestamp.Equal(scans[j].Timestamp) {
			return scans[i].Timestamp.After(scans[j].Timestamp)
		}
		return scans[i].RFIDUID < scans[j].RFIDUID
	})
	return scans
}

// Remove drops the scan of uid and reports whether one was pending.
func (p *PendingStore) Remove(uid string) bool {
	uid = strings.TrimSpace(uid)

	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[uid]
	if !ok {
		return false
	}
	p.removeLocked(e)
	return true
}

// Clear drops every pending scan.
func (p *PendingStore) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = make(map[string]*entry)
	p.queue = p.queue[:0]
}

// Sweep removes every expired scan and returns how many were dropped.
func (p *PendingStore) Sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.sweepLocked()
	if n > 0 {
		p.logger.Info("expired rfid scans swept", zap.Int("count", n))
	}
	return n
}

// Len returns the number of stored scans, expired ones included until swept.
func (p *PendingStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *PendingStore) sweepLocked() int {
	n := 0
	for p.queue.Len() > 0 && p.expired(p.queue[0]) {
		e := heap.Pop(&p.queue).(*entry)
		delete(p.entries, e.scan.RFIDUID)
		n++
	}
	return n
}

func (p *PendingStore) removeLocked(e *entry) {
	heap.Remove(&p.queue, e.index)
	delete(p.entries, e.scan.RFIDUID)
}

func (p *PendingStore) expired(e *entry) bool {
	return p.now().After(e.scan.ExpiresAt)
}
