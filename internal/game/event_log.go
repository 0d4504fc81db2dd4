package game

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize     = 1024                   // Records held between flushes
	MaxEventsPerSec     = 10000                  // Global rate limit
	MaxEventsPerRound   = 600                    // Per-round rate limit per second
	BatchFlushSize      = 64                     // Pending records that trigger an early flush
	BatchFlushInterval  = 100 * time.Millisecond // Flush period
	RoundLimiterCleanup = 5 * time.Minute        // Idle round limiters are dropped after this
)

// EventLogStats is a point-in-time view of the log counters
type EventLogStats struct {
	Total   uint64 `json:"total"`   // accepted by Emit
	Written uint64 `json:"written"` // handed to the file
	Dropped uint64 `json:"dropped"` // rate limited or overwritten
	Pending int    `json:"pending"`
	Running bool   `json:"running"`
}

// EventLog persists round events as JSONL. Emit runs on the engine goroutine
// and never blocks on I/O: records wait in a bounded ring that a background
// goroutine drains, and when the ring is full the oldest record is overwritten.
type EventLog struct {
	mu    sync.Mutex
	ring  []Record
	start int // index of the oldest pending record
	n     int // pending records

	global *rate.Limiter
	rounds map[string]*roundBudget // guarded by mu

	out  *bufio.Writer
	enc  *json.Encoder
	file *os.File

	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  atomic.Bool

	sequence atomic.Uint64
	total    atomic.Uint64
	written  atomic.Uint64
	dropped  atomic.Uint64
}

type roundBudget struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewEventLog creates a stopped log
func NewEventLog() *EventLog {
	return &EventLog{
		ring:     make([]Record, EventBufferSize),
		global:   rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		rounds:   make(map[string]*roundBudget),
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start opens filePath for appending and launches the writer.
// An empty path counts records without persisting them.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
		el.out = bufio.NewWriterSize(file, 32<<10)
		el.enc = json.NewEncoder(el.out)
	}

	el.running.Store(true)
	go el.run()
	return nil
}

// Stop drains pending records, then closes the file
func (el *EventLog) Stop() {
	if !el.running.Load() {
		return
	}
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		<-el.done

		if el.file != nil {
			if err := el.file.Close(); err != nil {
				log.Printf("⚠️ Event log close failed: %v", err)
			}
		}
	})
}

// Emit queues a record. Returns false if the log is stopped or rate limited.
func (el *EventLog) Emit(rec Record) bool {
	if !el.running.Load() {
		return false
	}

	now := time.Now()
	el.mu.Lock()
	if !el.global.AllowN(now, 1) || !el.roundAllow(rec.RoundID, now) {
		el.mu.Unlock()
		el.dropped.Add(1)
		return false
	}

	rec.Sequence = el.sequence.Add(1)
	if el.n == len(el.ring) {
		el.ring[el.start] = Record{}
		el.start = (el.start + 1) % len(el.ring)
		el.n--
		el.dropped.Add(1)
	}
	el.ring[(el.start+el.n)%len(el.ring)] = rec
	el.n++
	full := el.n >= BatchFlushSize
	el.mu.Unlock()

	el.total.Add(1)
	if full {
		select {
		case el.wake <- struct{}{}:
		default:
		}
	}
	return true
}

// EmitEvent wraps ev in a Record and emits it
func (el *EventLog) EmitEvent(roundID string, ev Event, payload interface{}) bool {
	return el.Emit(NewRecord(roundID, ev, payload))
}

// roundAllow charges one record to roundID's budget. Caller holds mu.
func (el *EventLog) roundAllow(roundID string, now time.Time) bool {
	if roundID == "" {
		return true
	}
	b, ok := el.rounds[roundID]
	if !ok {
		b = &roundBudget{limiter: rate.NewLimiter(MaxEventsPerRound, MaxEventsPerRound/10)}
		el.rounds[roundID] = b
	}
	b.lastUsed = now
	return b.limiter.AllowN(now, 1)
}

func (el *EventLog) run() {
	defer close(el.done)

	flush := time.NewTicker(BatchFlushInterval)
	defer flush.Stop()
	sweep := time.NewTicker(RoundLimiterCleanup)
	defer sweep.Stop()

	batch := make([]Record, 0, EventBufferSize)
	for {
		select {
		case <-el.stopChan:
			el.write(el.take(batch[:0]))
			return
		case <-el.wake:
			batch = el.take(batch[:0])
			el.write(batch)
		case <-flush.C:
			batch = el.take(batch[:0])
			el.write(batch)
		case now := <-sweep.C:
			el.sweepRounds(now.Add(-RoundLimiterCleanup))
		}
	}
}

// take moves every pending record into dst
func (el *EventLog) take(dst []Record) []Record {
	el.mu.Lock()
	defer el.mu.Unlock()

	for ; el.n > 0; el.n-- {
		dst = append(dst, el.ring[el.start])
		el.ring[el.start] = Record{}
		el.start = (el.start + 1) % len(el.ring)
	}
	el.start = 0
	return dst
}

func (el *EventLog) write(batch []Record) {
	if len(batch) == 0 {
		return
	}
	el.written.Add(uint64(len(batch)))
	if el.enc == nil {
		return
	}

	for _, rec := range batch {
		if err := el.enc.Encode(rec); err != nil {
			log.Printf("⚠️ Event log encode failed (seq %d): %v", rec.Sequence, err)
		}
	}
	if err := el.out.Flush(); err != nil {
		log.Printf("⚠️ Event log write failed: %v", err)
	}
}

func (el *EventLog) sweepRounds(cutoff time.Time) {
	el.mu.Lock()
	defer el.mu.Unlock()
	for id, b := range el.rounds {
		if b.lastUsed.Before(cutoff) {
			delete(el.rounds, id)
		}
	}
}

// Stats returns the current counters
func (el *EventLog) Stats() EventLogStats {
	el.mu.Lock()
	pending := el.n
	el.mu.Unlock()

	return EventLogStats{
		Total:   el.total.Load(),
		Written: el.written.Load(),
		Dropped: el.dropped.Load(),
		Pending: pending,
		Running: el.running.Load(),
	}
}
