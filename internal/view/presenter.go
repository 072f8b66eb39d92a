// Package view holds the per-session UI state of the console and the
// presenter that mutates it.
package view

import (
	"sync"
	"sync/atomic"
	"time"

	"game-stock-advisor/console/internal/render"
)

// DefaultCooldown keeps the train control disabled after a run finishes.
const DefaultCooldown = time.Second

// Scheduler runs fn after d. It matches time.AfterFunc.
type Scheduler func(d time.Duration, fn func()) *time.Timer

// Presenter owns one session's UI state. Every mutation bumps the snapshot
// version and is handed to the publish callback outside the lock.
type Presenter struct {
	cooldown time.Duration
	schedule Scheduler
	publish  func(Snapshot)
	clock    *atomic.Uint64

	mu      sync.Mutex
	state   Snapshot
	ticket  uint64
	pending *time.Timer
}

// NewPresenter creates a presenter in the idle state. publish may be nil.
func NewPresenter(cooldown time.Duration, publish func(Snapshot)) *Presenter {
	return newPresenter(cooldown, publish, new(atomic.Uint64))
}

// newPresenter draws snapshot versions from clock, so presenters sharing a
// clock never reuse a version.
func newPresenter(cooldown time.Duration, publish func(Snapshot), clock *atomic.Uint64) *Presenter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Presenter{
		cooldown: cooldown,
		schedule: time.AfterFunc,
		publish:  publish,
		clock:    clock,
		state: Snapshot{
			TrainButton: Button{Label: LabelTrainIdle},
		},
	}
}

// Snapshot returns the current state.
func (p *Presenter) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Presenter) update(fn func(s *Snapshot)) Snapshot {
	p.mu.Lock()
	fn(&p.state)
	p.state.Version = p.clock.Add(1)
	snap := p.state
	p.mu.Unlock()

	p.emit(snap)
	return snap
}

func (p *Presenter) emit(snap Snapshot) {
	if p.publish != nil {
		p.publish(snap)
	}
}

// ShowLoading toggles the loading indicator.
func (p *Presenter) ShowLoading(show bool) {
	p.update(func(s *Snapshot) { s.Loading = show })
}

// ShowError displays message in the error banner.
func (p *Presenter) ShowError(message string) {
	p.update(func(s *Snapshot) {
		s.Error = Banner{Visible: true, Message: message}
	})
}

// HideError hides the error banner.
func (p *Presenter) HideError() {
	p.update(func(s *Snapshot) { s.Error.Visible = false })
}

// ShowResults replaces the results panel with f and reveals it.
func (p *Presenter) ShowResults(f render.Fragment) {
	results := resultsFrom(f)
	p.update(func(s *Snapshot) { s.Results = results })
}

// BeginTraining moves the train control to its busy state. It reports false,
// leaving the state untouched, while the control is disabled.
func (p *Presenter) BeginTraining() bool {
	p.mu.Lock()
	if p.state.TrainButton.Disabled {
		p.mu.Unlock()
		return false
	}
	p.state.TrainButton = Button{Label: LabelTraining, Disabled: true}
	p.state.TrainStatus = StatusLine{Text: "Training model, please wait...", Color: ColorInfo}
	p.state.Version = p.clock.Add(1)
	snap := p.state
	p.mu.Unlock()

	p.emit(snap)
	return true
}

// FinishTraining records the outcome of a run and re-enables the control
// after the cool-down, whatever the outcome.
func (p *Presenter) FinishTraining(outcome TrainOutcome, text string) {
	p.update(func(s *Snapshot) {
		switch outcome {
		case TrainSucceeded:
			s.TrainButton = Button{Label: LabelTrained, Disabled: true}
			s.TrainStatus = StatusLine{Text: text, Color: ColorSuccess}
		case TrainFailed:
			s.TrainButton = Button{Label: LabelTrainFailed, Disabled: true}
			s.TrainStatus = StatusLine{Text: "❌ Error: " + text, Color: ColorError}
		default:
			s.TrainButton = Button{Label: LabelTrainErrored, Disabled: true}
			s.TrainStatus = StatusLine{Text: "❌ Error: " + text, Color: ColorError}
		}
	})

	p.mu.Lock()
	if p.pending != nil {
		p.pending.Stop()
	}
	p.pending = p.schedule(p.cooldown, p.enableTraining)
	p.mu.Unlock()
}

// enableTraining ends the cool-down. The outcome label stays; only the
// disabled flag is cleared.
func (p *Presenter) enableTraining() {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
	p.update(func(s *Snapshot) { s.TrainButton.Disabled = false })
}

// NextTicket starts a predict run and returns its ticket. Only the most
// recently issued ticket may render.
func (p *Presenter) NextTicket() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticket++
	return p.ticket
}

// Current reports whether ticket is still the latest predict run.
func (p *Presenter) Current(ticket uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticket == ticket
}

// Close stops a pending cool-down timer.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}
