// Package replay fetches finished games from the Battlesnake engine and
// measures how often the greedy selector agrees with the moves that were
// actually played.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/greedysnake/config"
	"github.com/brensch/greedysnake/game"
)

type Config struct {
	EngineURL      string // WebSocket URL template with one %s for the game id
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	UserAgent      string
	Logger         *slog.Logger
}

func DefaultConfig() Config {
	return FromConfig(config.Default().Replay)
}

func FromConfig(c config.ReplayConfig) Config {
	return Config{
		EngineURL:      c.EngineURL,
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		UserAgent:      c.UserAgent,
	}
}

// Event is one message of the engine event stream.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// GameInfo from the "game_info" event
type GameInfo struct {
	Game    GameDetails `json:"game"`
	Ruleset RulesetInfo `json:"ruleset"`
}

type GameDetails struct {
	ID      string `json:"id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Timeout int    `json:"timeout"`
}

type RulesetInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Frame from "frame" events
type Frame struct {
	Turn   int         `json:"turn"`
	Snakes []SnakeData `json:"snakes"`
	Food   []Coord     `json:"food"`
	Board  BoardData   `json:"board,omitempty"`
}

type SnakeData struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []Coord `json:"body"`
	Author string  `json:"author,omitempty"`
	Death  *Death  `json:"death,omitempty"`
}

func (s SnakeData) Alive() bool { return s.Death == nil && s.Health > 0 && len(s.Body) > 0 }

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) Point() game.Point { return game.Point{X: int32(c.X), Y: int32(c.Y)} }

type BoardData struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Death struct {
	Cause string `json:"cause"`
	Turn  int    `json:"turn"`
}

// Game is a downloaded game: metadata plus frames in turn order.
type Game struct {
	ID      string
	Ruleset string
	Width   int
	Height  int
	Frames  []Frame
}

const defaultBoardSize = 11

// State converts frame i into a game state seen by snake you. Dead snakes
// are left off the board.
func (g *Game) State(i int, you string) *game.GameState {
	f := g.Frames[i]
	w, h := g.Width, g.Height
	if f.Board.Width > 0 && f.Board.Height > 0 {
		w, h = f.Board.Width, f.Board.Height
	}

	state := &game.GameState{
		Width:  int32(w),
		Height: int32(h),
		YouId:  you,
		Turn:   int32(f.Turn),
		Food:   make([]game.Point, len(f.Food)),
	}
	for j, c := range f.Food {
		state.Food[j] = c.Point()
	}
	for _, s := range f.Snakes {
		if !s.Alive() {
			continue
		}
		snake := game.Snake{Id: s.ID, Health: int32(s.Health), Body: make([]game.Point, len(s.Body))}
		for j, c := range s.Body {
			snake.Body[j] = c.Point()
		}
		state.Snakes = append(state.Snakes, snake)
	}
	return state
}

// Download reads the engine event stream for gameID until game_end or the
// server closes the connection.
func Download(ctx context.Context, gameID string, cfg Config) (*Game, error) {
	if gameID == "" {
		return nil, errors.New("game id is required")
	}
	if !strings.Contains(cfg.EngineURL, "%s") {
		return nil, fmt.Errorf("engine url %q has no %%s for the game id", cfg.EngineURL)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	url := fmt.Sprintf(cfg.EngineURL, gameID)

	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	header := http.Header{}
	if cfg.UserAgent != "" {
		header.Set("User-Agent", cfg.UserAgent)
	}

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", gameID, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	g := &Game{ID: gameID}
	var info GameInfo

loop:
	for {
		if cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			// Timeout or unexpected close; keep what we got.
			if len(g.Frames) > 0 {
				logger.Warn("event stream cut short", "game", gameID, "frames", len(g.Frames), "err", err)
				break
			}
			return nil, fmt.Errorf("read %s: %w", gameID, err)
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			logger.Warn("bad event", "game", gameID, "err", err)
			continue
		}

		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &info); err != nil {
				logger.Warn("bad game_info", "game", gameID, "err", err)
			}
		case "frame":
			var f Frame
			if err := json.Unmarshal(event.Data, &f); err != nil {
				logger.Warn("bad frame", "game", gameID, "err", err)
				continue
			}
			g.Frames = append(g.Frames, f)
		case "game_end":
			break loop
		}
	}

	if len(g.Frames) == 0 {
		return nil, fmt.Errorf("game %s: no frames", gameID)
	}

	g.Ruleset = info.Ruleset.Name
	g.Width, g.Height = info.Game.Width, info.Game.Height
	if g.Width <= 0 || g.Height <= 0 {
		g.Width, g.Height = defaultBoardSize, defaultBoardSize
	}
	logger.Debug("downloaded game", "game", gameID, "frames", len(g.Frames), "ruleset", g.Ruleset)
	return g, nil
}
