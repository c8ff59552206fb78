package sync

import (
	"fmt"
	"sync"
	"time"
)

const stateChangesBufferSize = 16

// State of the synchronization of a chain
type State int

const (
	Idle State = iota
	Syncing
	Synced
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Syncing:
		return "syncing"
	case Synced:
		return "synced"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(data []byte) error {
	for _, st := range []State{Idle, Syncing, Synced, Failed} {
		if st.String() == string(data) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown sync state %q", data)
}

// Status is a snapshot of a Tracker
type Status struct {
	State              State     `json:"state"`
	LastProcessedBlock uint64    `json:"lastProcessedBlock"`
	RemoteHead         uint64    `json:"remoteHead"`
	HeadKnown          bool      `json:"headKnown"`
	LastError          string    `json:"lastError,omitempty"`
	Failures           int       `json:"failures"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// StateChange is emitted on every transition
type StateChange struct {
	From   State
	To     State
	Status Status
}

// Tracker holds the sync state of a chain. The chain is synced once the last processed
// block reaches the remote head
type Tracker struct {
	mu     sync.Mutex
	status Status
	subs   []chan StateChange
	now    func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Subscribe returns a channel receiving the transitions. When the receiver falls behind
// the oldest pending change is dropped
func (t *Tracker) Subscribe() <-chan StateChange {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan StateChange, stateChangesBufferSize)
	t.subs = append(t.subs, ch)
	return ch
}

// Start moves an idle or failed tracker to syncing. The remote head is forgotten
// since it may come from another source
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.State != Idle && t.status.State != Failed {
		return
	}
	t.status.HeadKnown = false
	t.status.RemoteHead = 0
	t.setState(Syncing)
}

// Stop moves the tracker to idle
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setState(Idle)
}

// Fail moves the tracker to failed keeping the error
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Failures++
	if err != nil {
		t.status.LastError = err.Error()
	}
	t.setState(Failed)
}

func (t *Tracker) SetRemoteHead(head uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running() {
		return
	}
	t.status.RemoteHead = head
	t.status.HeadKnown = true
	t.refresh()
}

func (t *Tracker) SetProcessed(block uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running() {
		return
	}
	t.status.LastProcessedBlock = block
	t.refresh()
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) running() bool {
	return t.status.State == Syncing || t.status.State == Synced
}

func (t *Tracker) refresh() {
	t.status.UpdatedAt = t.now()
	if t.status.HeadKnown && t.status.LastProcessedBlock >= t.status.RemoteHead {
		t.status.Failures = 0
		t.status.LastError = ""
		t.setState(Synced)
		return
	}
	t.setState(Syncing)
}

// setState must be called holding mu
func (t *Tracker) setState(to State) {
	from := t.status.State
	t.status.UpdatedAt = t.now()
	if from == to {
		return
	}
	t.status.State = to
	change := StateChange{From: from, To: to, Status: t.status}
	for _, ch := range t.subs {
		select {
		case ch <- change:
		default:
			// drop the oldest change to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- change:
			default:
			}
		}
	}
}
