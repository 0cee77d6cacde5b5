package live

import (
	"sync"
	"time"

	"github.com/docuvox/docuvox/pkg/core/pcm"
)

// Clock reports the current output clock time in seconds. The zero point is
// arbitrary; only monotonicity matters.
type Clock interface {
	Now() float64
}

// wallClock measures seconds since its creation.
type wallClock struct {
	start time.Time
}

func newWallClock() *wallClock { return &wallClock{start: time.Now()} }

func (c *wallClock) Now() float64 { return time.Since(c.start).Seconds() }

// Sink renders audio frames on the output device. Play is called at each
// frame's scheduled start time with frames in start-time order; Reset
// discards anything the device still has buffered.
type Sink interface {
	Play(frame pcm.Frame) error
	Reset() error
}

// scheduleEntry is one in-flight playback buffer. It is owned by the
// scheduler from creation until its completion timer fires.
type scheduleEntry struct {
	frame     pcm.Frame
	start     float64
	playTimer *time.Timer
	doneTimer *time.Timer
}

// Scheduler plays a stream of decoded frames gaplessly and in arrival order
// against a shared output clock.
//
// For every frame: start = max(nextStart, now); the frame begins at start and
// nextStart advances to start + duration. Frames arriving faster than real
// time queue back to back; a stalled stream produces silence, never
// corruption. HaltAll is the only path that truncates audio mid-playback.
type Scheduler struct {
	clock Clock
	sink  Sink

	mu      sync.Mutex
	next    float64
	entries map[int64]*scheduleEntry
	seq     int64
	halted  bool
	onErr   func(error)
}

// NewScheduler creates a playback scheduler rendering to sink. A nil clock
// gets a wall clock starting at zero.
func NewScheduler(sink Sink, clock Clock) *Scheduler {
	if clock == nil {
		clock = newWallClock()
	}
	return &Scheduler{
		clock:   clock,
		sink:    sink,
		entries: make(map[int64]*scheduleEntry),
	}
}

// SetErrorFunc registers a callback for sink playback errors. Playback
// errors do not stop the scheduler; the session decides what to do.
func (s *Scheduler) SetErrorFunc(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onErr = fn
}

// Schedule queues one decoded frame and returns its computed start time on
// the output clock. Frames scheduled after HaltAll are dropped until the
// scheduler is reused via Resume.
func (s *Scheduler) Schedule(frame pcm.Frame) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	start := s.next
	if now > start {
		start = now
	}
	s.next = start + frame.Duration()

	if s.halted {
		return start
	}

	id := s.seq
	s.seq++
	entry := &scheduleEntry{frame: frame, start: start}
	s.entries[id] = entry

	delay := time.Duration((start - now) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}
	entry.playTimer = time.AfterFunc(delay, func() { s.play(id) })
	entry.doneTimer = time.AfterFunc(delay+time.Duration(frame.Duration()*float64(time.Second)), func() { s.complete(id) })
	return start
}

// play renders one entry at its start time.
func (s *Scheduler) play(id int64) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	halted := s.halted
	onErr := s.onErr
	s.mu.Unlock()

	if !ok || halted {
		return
	}
	if err := s.sink.Play(entry.frame); err != nil && onErr != nil {
		onErr(err)
	}
}

// complete removes an entry after its natural playback end.
func (s *Scheduler) complete(id int64) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Active returns the number of in-flight scheduled buffers.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// NextStart returns the current playback clock cursor.
func (s *Scheduler) NextStart() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// HaltAll forcibly stops every in-flight entry, clears the active set, and
// resets the sink so the next response starts on a clean device. Called on
// interrupt.
func (s *Scheduler) HaltAll() error {
	s.halt()
	return s.sink.Reset()
}

// Drop stops every in-flight entry without touching the sink. Used during
// final teardown, where the output device is closed right after and a flush
// would only restart it.
func (s *Scheduler) Drop() {
	s.halt()
}

func (s *Scheduler) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		if entry.playTimer != nil {
			entry.playTimer.Stop()
		}
		if entry.doneTimer != nil {
			entry.doneTimer.Stop()
		}
		delete(s.entries, id)
	}
	s.halted = true
	s.next = 0
}

// Resume re-arms the scheduler after a HaltAll so the next response can be
// scheduled from a fresh cursor.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = false
	s.next = 0
}
