package engine

import "time"

// EventType names a presentation notification
type EventType string

const (
	EventBlockHighlighted   EventType = "block_highlighted"
	EventBlockUnhighlighted EventType = "block_unhighlighted"
	EventBlockSpawned       EventType = "block_spawned"
	EventBlockRemoved       EventType = "block_removed"
	EventBlockLevelChanged  EventType = "block_level_changed"
	EventExplosion          EventType = "explosion"
	EventCombo              EventType = "combo"
	EventComboEnded         EventType = "combo_ended"
	EventChainHint          EventType = "chain_hint"
	EventMilestone          EventType = "milestone"
	EventGameOver           EventType = "game_over"
)

// Cue names an audio event
type Cue string

const (
	CueMerge    Cue = "merge"
	CueExplode  Cue = "explode"
	CueCombo    Cue = "combo"
	CueGameOver Cue = "game_over"
)

// Event is a fire-and-forget notification emitted by the engine
type Event struct {
	Type      EventType    `json:"type"`
	Position  *Coordinate  `json:"position,omitempty"`
	Level     int          `json:"level,omitempty"`
	Radius    int          `json:"radius,omitempty"`
	Count     int          `json:"count,omitempty"`
	Summary   *GameSummary `json:"summary,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Observer receives presentation notifications. Implementations must not
// call back into the engine synchronously; doing so yields ErrBusy.
type Observer interface {
	Notify(Event)
}

// AudioSink receives discrete audio cues
type AudioSink interface {
	Play(Cue)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Notify calls f(e)
func (f ObserverFunc) Notify(e Event) { f(e) }

// AudioFunc adapts a function to AudioSink
type AudioFunc func(Cue)

// Play calls f(c)
func (f AudioFunc) Play(c Cue) { f(c) }

// emitter fans events out to collaborators and records them for the
// current pipeline result
type emitter struct {
	observers []Observer
	audio     []AudioSink
	clock     Clock
	buffer    []Event
	cues      []Cue
}

func (em *emitter) emit(e Event) {
	e.Timestamp = em.clock.Now()
	em.buffer = append(em.buffer, e)
	for _, o := range em.observers {
		o.Notify(e)
	}
}

func (em *emitter) at(t EventType, pos Coordinate, level int) {
	p := pos
	em.emit(Event{Type: t, Position: &p, Level: level})
}

func (em *emitter) play(c Cue) {
	em.cues = append(em.cues, c)
	for _, a := range em.audio {
		a.Play(c)
	}
}

// drain returns and clears the buffered events and cues
func (em *emitter) drain() ([]Event, []Cue) {
	events, cues := em.buffer, em.cues
	em.buffer, em.cues = nil, nil
	if events == nil {
		events = []Event{}
	}
	return events, cues
}
