package carousel

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"
)

const (
	DefaultInterval = 4 * time.Second

	// minVideoFallback is the floor for the conservative video fallback.
	minVideoFallback = 10 * time.Second
	// videoGrace is added to every video deadline so "ended" normally wins.
	videoGrace = 250 * time.Millisecond
	// maxVideoDuration bounds reported durations so the deadline cannot overflow.
	maxVideoDuration = time.Duration(math.MaxInt64 / 2)
)

var ErrIndexOutOfRange = errors.New("slide index out of range")

// Token identifies one entry into a slide. Notifications carrying an older
// token are ignored.
type Token uint64

// Media is the playback surface for video slides. Implementations report
// back through Scheduler.Ended and Scheduler.MetadataLoaded using the token
// passed to PlayMuted.
type Media interface {
	Rewind(index int)
	PlayMuted(index int, token Token) error
	Pause(index int)
}

// NopMedia is a Media that does nothing. Videos then advance on the fallback timer.
type NopMedia struct{}

func (NopMedia) Rewind(int)                 {}
func (NopMedia) PlayMuted(int, Token) error { return nil }
func (NopMedia) Pause(int)                  {}

// Scheduler advances a carousel through its slides. Stills advance after the
// interval. Videos advance when they end, or on a fallback deadline. At most
// one advance is pending at any time.
//
// Calls into Media and observers happen after the internal lock is released,
// so they may call back into the Scheduler. They run in transition order even
// when transitions come from different goroutines.
type Scheduler struct {
	mu        sync.Mutex
	slides    []Slide
	interval  time.Duration
	clock     Clock
	media     Media
	index     int
	token     Token
	timer     Timer
	started   bool
	closed    bool
	observers map[int]func(int)
	nextObsID int
	effects   []func()
	draining  bool
}

// NewScheduler builds a scheduler positioned on slide 0. Nothing is armed until Start.
func NewScheduler(slides []Slide, interval time.Duration, clock Clock, media Media) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = RealClock()
	}
	if media == nil {
		media = NopMedia{}
	}
	return &Scheduler{
		slides:    append([]Slide(nil), slides...),
		interval:  interval,
		clock:     clock,
		media:     media,
		observers: make(map[int]func(int)),
	}
}

// Start enters the current slide. Calling it again has no effect.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.unlock()

	if s.closed || s.started || len(s.slides) == 0 {
		return
	}
	s.started = true
	s.enter(s.index)
}

func (s *Scheduler) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Scheduler) Len() int {
	return len(s.slides)
}

// Current returns the slide shown now and the token of its entry.
// ok is false when there are no slides.
func (s *Scheduler) Current() (slide Slide, token Token, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slides) == 0 {
		return Slide{}, 0, false
	}
	return s.slides[s.index], s.token, true
}

func (s *Scheduler) Slides() []Slide {
	return append([]Slide(nil), s.slides...)
}

// Next moves forward one slide, wrapping at the end.
func (s *Scheduler) Next() {
	s.mu.Lock()
	defer s.unlock()
	if !s.navigable() {
		return
	}
	s.moveTo((s.index + 1) % len(s.slides))
}

// Prev moves back one slide, wrapping at the start.
func (s *Scheduler) Prev() {
	s.mu.Lock()
	defer s.unlock()
	if !s.navigable() {
		return
	}
	n := len(s.slides)
	s.moveTo((s.index - 1 + n) % n)
}

// GoTo jumps to slide i.
func (s *Scheduler) GoTo(i int) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return nil
	}
	if i < 0 || i >= len(s.slides) {
		return ErrIndexOutOfRange
	}
	s.started = true
	s.moveTo(i)
	return nil
}

// Ended reports that the video entered with token finished playing.
func (s *Scheduler) Ended(token Token) {
	s.advance(token)
}

// MetadataLoaded reports the duration of the video entered with token, in
// seconds. A finite positive duration replaces the fallback deadline with
// duration plus a short grace. Anything else re-arms the conservative fallback.
func (s *Scheduler) MetadataLoaded(token Token, seconds float64) {
	s.mu.Lock()
	defer s.unlock()

	if s.closed || token != s.token || len(s.slides) <= 1 {
		return
	}
	if s.slides[s.index].Kind != KindVideo {
		return
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 || seconds >= maxVideoDuration.Seconds() {
		s.arm(s.videoFallback())
		return
	}
	s.arm(time.Duration(seconds*float64(time.Second)) + videoGrace)
}

// Subscribe registers fn to be called with the new index after every slide change.
func (s *Scheduler) Subscribe(fn func(index int)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return func() {}
	}
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Close cancels any pending advance, pauses the current video and drops all
// observers. Every later call is a no-op.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return
	}
	if s.started {
		s.leave()
	} else {
		s.stopTimer()
	}
	s.closed = true
	s.token++
	clear(s.observers)
}

func (s *Scheduler) navigable() bool {
	if s.closed || len(s.slides) == 0 {
		return false
	}
	s.started = true
	return true
}

func (s *Scheduler) advance(token Token) {
	s.mu.Lock()
	defer s.unlock()

	if s.closed || token != s.token || len(s.slides) <= 1 {
		return
	}
	s.moveTo((s.index + 1) % len(s.slides))
}

// The methods below must be called with mu held.

func (s *Scheduler) moveTo(i int) {
	s.leave()
	s.enter(i)
	s.notify(i)
}

func (s *Scheduler) leave() {
	s.stopTimer()
	if len(s.slides) == 0 {
		return
	}
	if s.slides[s.index].Kind == KindVideo {
		idx := s.index
		s.effects = append(s.effects, func() { s.media.Pause(idx) })
	}
}

func (s *Scheduler) enter(i int) {
	s.index = i
	s.token++
	token := s.token
	slide := s.slides[i]

	if slide.Kind == KindVideo {
		s.effects = append(s.effects, func() {
			s.media.Rewind(i)
			if err := s.media.PlayMuted(i, token); err != nil {
				log.Printf("[Carousel] Autoplay failed for slide %d: %v", i, err)
			}
		})
	}

	if len(s.slides) <= 1 {
		return
	}
	if slide.Kind == KindVideo {
		s.arm(s.videoFallback())
		return
	}
	s.arm(s.interval)
}

func (s *Scheduler) arm(d time.Duration) {
	s.stopTimer()
	token := s.token
	s.timer = s.clock.AfterFunc(d, func() { s.advance(token) })
}

func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) videoFallback() time.Duration {
	return max(minVideoFallback, 2*s.interval) + videoGrace
}

func (s *Scheduler) notify(i int) {
	for _, fn := range s.observers {
		s.effects = append(s.effects, func() { fn(i) })
	}
}

// unlock releases mu and runs the side effects queued while it was held.
// One goroutine drains at a time, in the order the transitions happened; a
// transition made while another goroutine is draining leaves its effects to
// that goroutine.
func (s *Scheduler) unlock() {
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.effects) > 0 {
		batch := s.effects
		s.effects = nil
		s.mu.Unlock()
		for _, f := range batch {
			f()
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}
