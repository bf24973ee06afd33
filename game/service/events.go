package service

import (
	"fmt"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
)

// convertEvents turns engine notifications into API events with
// human-readable messages
func convertEvents(events []engine.Event) []GameEvent {
	out := make([]GameEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, GameEvent{
			Type:      string(ev.Type),
			Message:   eventMessage(ev),
			Timestamp: ev.Timestamp,
			Position:  ev.Position,
			Level:     ev.Level,
			Count:     ev.Count,
		})
	}
	return out
}

func eventMessage(ev engine.Event) string {
	at := ""
	if ev.Position != nil {
		at = fmt.Sprintf(" at (%d,%d)", ev.Position.X, ev.Position.Y)
	}

	switch ev.Type {
	case engine.EventBlockHighlighted:
		return "Block selected" + at
	case engine.EventBlockUnhighlighted:
		return "Block deselected" + at
	case engine.EventBlockSpawned:
		return fmt.Sprintf("Level %d block spawned%s", ev.Level, at)
	case engine.EventBlockRemoved:
		return "Block removed" + at
	case engine.EventBlockLevelChanged:
		return fmt.Sprintf("Block%s is now level %d (%d)", at, ev.Level, engine.BlockValue(ev.Level))
	case engine.EventExplosion:
		return fmt.Sprintf("Explosion%s cleared %d blocks", at, ev.Count)
	case engine.EventCombo:
		return fmt.Sprintf("Combo x%d", ev.Count)
	case engine.EventComboEnded:
		return "Combo chain ended"
	case engine.EventChainHint:
		return fmt.Sprintf("Another level %d block is adjacent%s", ev.Level, at)
	case engine.EventMilestone:
		return fmt.Sprintf("Milestone reached: level %d (%d)", ev.Level, engine.BlockValue(ev.Level))
	case engine.EventGameOver:
		if ev.Summary != nil {
			return fmt.Sprintf("Game over with %d points", ev.Summary.Score)
		}
		return "Game over"
	}
	return string(ev.Type)
}

// actionMessage summarizes the outcome of one input
func actionMessage(tr *engine.TouchResult, state *engine.GameState) string {
	switch tr.Action {
	case engine.SelectionArmed, engine.SelectionRearmed:
		return "Block selected, touch an adjacent block of the same level"
	case engine.SelectionCancelled:
		return "Selection cancelled"
	case engine.SelectionIgnored:
		return "Nothing to select there"
	}
	if tr.Merge == nil {
		return state.Message
	}
	msg := fmt.Sprintf("Merged into level %d for %d points", tr.Merge.LevelAfter, tr.Merge.Points)
	if tr.Merge.Combo > 1 {
		msg += fmt.Sprintf(" (combo x%d)", tr.Merge.Combo)
	}
	if tr.Merge.Exploded {
		msg += ", explosion!"
	}
	if tr.Merge.GameOver {
		msg += fmt.Sprintf(". Game over! Final score %d", state.Score)
	}
	return msg
}
