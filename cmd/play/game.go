package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
	"github.com/wricardo/mcp-training/mergeblocks/game/service"
)

const (
	cellWidth  = 7
	cellHeight = 3
	boardLeft  = 2
	boardTop   = 4
	tickPeriod = 100 * time.Millisecond
)

// levelColors cycles through the palette by block level
var levelColors = []tcell.Color{
	tcell.ColorGray,
	tcell.ColorGreen,
	tcell.ColorTeal,
	tcell.ColorBlue,
	tcell.ColorPurple,
	tcell.ColorFuchsia,
	tcell.ColorRed,
	tcell.ColorOrange,
	tcell.ColorYellow,
	tcell.ColorOlive,
	tcell.ColorMaroon,
}

// Game is the terminal front end for one local session
type Game struct {
	screen    tcell.Screen
	svc       service.GameService
	sessionID string
	state     *engine.GameState
	cursor    engine.Coordinate
	hint      *engine.Hint
	message   string
	buttons   tcell.ButtonMask
	beeps     int
	logger    *zap.Logger
}

// Play rings the terminal bell on explosions and at game over
func (g *Game) Play(c engine.Cue) {
	switch c {
	case engine.CueExplode, engine.CueGameOver:
		g.beeps++
		if err := g.screen.Beep(); err != nil {
			g.logger.Debug("bell failed", zap.Error(err))
		}
	}
}

// Start creates the session the game is played in
func (g *Game) Start(ctx context.Context, configName string, seed *int64) error {
	info, err := g.svc.CreateSession(ctx, configName, seed)
	if err != nil {
		return err
	}
	g.sessionID = info.ID
	g.state = info.GameState
	g.message = "Click or move with the arrows and press space to select a block"
	return nil
}

// Run polls terminal events and ticks the combo window until the player
// quits or ctx is done.
func (g *Game) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go g.pollEvents(events, done)

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	g.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !g.handleEvent(ctx, ev) {
				return nil
			}
			g.draw()
		case <-ticker.C:
			if g.tick(ctx) {
				g.draw()
			}
		}
	}
}

// pollEvents forwards terminal events until the screen is finalized or
// done is closed
func (g *Game) pollEvents(events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := g.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// handleEvent applies one terminal event. It returns false when the player quits.
func (g *Game) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			g.moveCursor(0, -1)
		case tcell.KeyDown:
			g.moveCursor(0, 1)
		case tcell.KeyLeft:
			g.moveCursor(-1, 0)
		case tcell.KeyRight:
			g.moveCursor(1, 0)
		case tcell.KeyEnter:
			g.touch(ctx, g.cursor)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				g.touch(ctx, g.cursor)
			case 'h':
				g.showHint(ctx)
			case 'r':
				g.reset(ctx)
			}
		}

	case *tcell.EventMouse:
		buttons := ev.Buttons()
		pressed := buttons&tcell.Button1 != 0 && g.buttons&tcell.Button1 == 0
		g.buttons = buttons
		if pressed {
			if pos, ok := g.cellAt(ev.Position()); ok {
				g.cursor = pos
				g.touch(ctx, pos)
			}
		}

	case *tcell.EventResize:
		g.screen.Sync()
	}
	return true
}

func (g *Game) moveCursor(dx, dy int) {
	x, y := g.cursor.X+dx, g.cursor.Y+dy
	if x < 0 || y < 0 || x >= g.state.GridSize || y >= g.state.GridSize {
		return
	}
	g.cursor = engine.Coordinate{X: x, Y: y}
}

// cellAt maps a screen position to a board cell
func (g *Game) cellAt(x, y int) (engine.Coordinate, bool) {
	if x < boardLeft || y < boardTop {
		return engine.Coordinate{}, false
	}
	pos := engine.Coordinate{X: (x - boardLeft) / cellWidth, Y: (y - boardTop) / cellHeight}
	if pos.X >= g.state.GridSize || pos.Y >= g.state.GridSize {
		return engine.Coordinate{}, false
	}
	return pos, true
}

func (g *Game) touch(ctx context.Context, pos engine.Coordinate) {
	result, err := g.svc.Touch(ctx, g.sessionID, pos)
	if err != nil {
		g.message = errorMessage(err)
		return
	}
	g.state = result.GameState
	g.hint = nil
	g.message = result.Message
	if result.Summary != nil {
		g.message = fmt.Sprintf("Game over! Final score %d, best %d. Press r to play again",
			result.Summary.Score, result.Summary.BestScore)
	}
}

func (g *Game) showHint(ctx context.Context) {
	resp, err := g.svc.Hint(ctx, g.sessionID)
	if err != nil {
		g.message = errorMessage(err)
		return
	}
	g.hint = resp.Hint
	g.message = resp.Message
}

func (g *Game) reset(ctx context.Context) {
	state, err := g.svc.Reset(ctx, g.sessionID)
	if err != nil {
		g.message = errorMessage(err)
		return
	}
	g.state = state
	g.hint = nil
	g.message = "New game"
}

// tick expires the combo chain. It reports whether the state changed.
func (g *Game) tick(ctx context.Context) bool {
	result, err := g.svc.Tick(ctx, g.sessionID)
	if err != nil || !result.ComboEnded {
		return false
	}
	g.state = result.GameState
	return true
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrGameOver):
		return "The game is over. Press r to play again"
	case errors.Is(err, engine.ErrBusy):
		return "Still resolving the last merge"
	default:
		return err.Error()
	}
}

func (g *Game) draw() {
	g.screen.Clear()
	s := g.state

	title := tcell.StyleDefault.Bold(true)
	g.print(boardLeft, 0, title, fmt.Sprintf("MERGE BLOCKS - %s", s.ConfigName))
	g.print(boardLeft, 1, tcell.StyleDefault, fmt.Sprintf("Score: %d   Best: %d   Combo: %d   Moves: %d",
		s.Score, s.BestScore, s.ComboCount, s.MoveCount))
	g.print(boardLeft, 2, tcell.StyleDefault, fmt.Sprintf("Highest block: %d (level %d)", s.HighestValue, s.HighestLevel))

	for y := 0; y < s.GridSize; y++ {
		for x := 0; x < s.GridSize; x++ {
			g.drawCell(engine.Coordinate{X: x, Y: y}, s.Board[y][x])
		}
	}

	footer := boardTop + s.GridSize*cellHeight + 1
	g.print(boardLeft, footer, tcell.StyleDefault.Foreground(tcell.ColorYellow), g.message)
	g.print(boardLeft, footer+1, tcell.StyleDefault.Dim(true),
		"arrows/mouse move  space select  h hint  r reset  q quit")
	g.screen.Show()
}

func (g *Game) drawCell(pos engine.Coordinate, level int) {
	left := boardLeft + pos.X*cellWidth
	top := boardTop + pos.Y*cellHeight

	style := tcell.StyleDefault
	if level > 0 {
		style = style.Background(levelColors[level%len(levelColors)]).Foreground(tcell.ColorBlack)
	}

	selected := g.state.Selected != nil && *g.state.Selected == pos
	hinted := g.hint != nil && (g.hint.A == pos || g.hint.B == pos)
	switch {
	case selected:
		style = style.Reverse(true)
	case hinted:
		style = style.Underline(true)
	}

	for dy := 0; dy < cellHeight-1; dy++ {
		for dx := 0; dx < cellWidth-1; dx++ {
			g.screen.SetContent(left+dx, top+dy, ' ', nil, style)
		}
	}

	label := "."
	if level > 0 {
		label = fmt.Sprintf("%d", engine.BlockValue(level))
	}
	g.print(left+(cellWidth-1-len(label))/2, top, style, label)
	if level > 0 {
		g.print(left+1, top+1, style, fmt.Sprintf("L%d", level))
	}

	if pos == g.cursor {
		g.screen.SetContent(left+cellWidth-2, top+cellHeight-2, '*', nil, style.Bold(true))
	}
}

func (g *Game) print(x, y int, style tcell.Style, text string) {
	for i, r := range text {
		g.screen.SetContent(x+i, y, r, nil, style)
	}
}
