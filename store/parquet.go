// Package store persists games: arena archives as Parquet batches and the
// server's game results in SQLite.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/greedysnake/game"
)

const archiveSchema = "greedy_archive_turn_v1"

// ArchiveTurnRow is a single (game, turn) snapshot.
//
// One row per turn with nested snake data, so food is not duplicated across
// snakes. The terminal position is recorded as a final row with Move=-1.
type ArchiveTurnRow struct {
	GameID string `parquet:"game_id,dict"`
	Turn   int32  `parquet:"turn"`
	Width  int32  `parquet:"width"`
	Height int32  `parquet:"height"`

	FoodX []int32 `parquet:"food_x"`
	FoodY []int32 `parquet:"food_y"`

	Snakes []ArchiveSnake `parquet:"snakes"`

	Source string `parquet:"source,dict"`
}

type ArchiveSnake struct {
	ID     string `parquet:"id,dict"`
	Alive  bool   `parquet:"alive"`
	Health int32  `parquet:"health"`

	BodyX []int32 `parquet:"body_x"`
	BodyY []int32 `parquet:"body_y"`

	// Move is the direction played this turn (0=up 1=down 2=left 3=right),
	// or -1 when none was played.
	Move int32 `parquet:"move"`
	// Reason names the heuristic rule that chose Move.
	Reason string `parquet:"reason,dict"`
	// Value is the final outcome for this snake: 1 win, -1 loss, 0 draw.
	Value float32 `parquet:"value"`
}

// NewArchiveRow flattens a state into a row. moves and reasons may be nil.
func NewArchiveRow(gameID, source string, state *game.GameState, moves map[string]game.Direction, reasons map[string]string) ArchiveTurnRow {
	row := ArchiveTurnRow{
		GameID: gameID,
		Turn:   state.Turn,
		Width:  state.Width,
		Height: state.Height,
		Source: source,
	}
	if len(state.Food) > 0 {
		row.FoodX = make([]int32, 0, len(state.Food))
		row.FoodY = make([]int32, 0, len(state.Food))
		for _, p := range state.Food {
			row.FoodX = append(row.FoodX, p.X)
			row.FoodY = append(row.FoodY, p.Y)
		}
	}

	row.Snakes = make([]ArchiveSnake, 0, len(state.Snakes))
	for _, s := range state.Snakes {
		snake := ArchiveSnake{
			ID:     s.Id,
			Alive:  s.Alive(),
			Health: s.Health,
			Move:   -1,
			Reason: reasons[s.Id],
		}
		if m, ok := moves[s.Id]; ok {
			snake.Move = int32(m)
		}
		snake.BodyX = make([]int32, 0, len(s.Body))
		snake.BodyY = make([]int32, 0, len(s.Body))
		for _, p := range s.Body {
			snake.BodyX = append(snake.BodyX, p.X)
			snake.BodyY = append(snake.BodyY, p.Y)
		}
		row.Snakes = append(row.Snakes, snake)
	}
	return row
}

// ArchiveWriter streams rows into outDir/tmp and moves the finished file into
// outDir on Finalize, so readers never observe a partial Parquet file.
type ArchiveWriter struct {
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[ArchiveTurnRow]

	games int
	rows  int
}

func NewArchiveWriter(outDir string) (*ArchiveWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("arena_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[ArchiveTurnRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", archiveSchema)

	return &ArchiveWriter{
		tmpPath: tmpPath,
		outPath: filepath.Join(absOut, name),
		file:    f,
		writer:  w,
	}, nil
}

func (a *ArchiveWriter) OutPath() string { return a.outPath }
func (a *ArchiveWriter) Games() int      { return a.games }
func (a *ArchiveWriter) Rows() int       { return a.rows }

// WriteGame appends all rows of one game.
func (a *ArchiveWriter) WriteGame(rows []ArchiveTurnRow) error {
	if a.writer == nil {
		return fmt.Errorf("archive writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := a.writer.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	a.rows += len(rows)
	a.games++
	return nil
}

// Finalize closes the writer and publishes the file. If nothing was written
// the tmp file is removed and the returned path is empty.
func (a *ArchiveWriter) Finalize() (string, error) {
	if a.writer == nil {
		return "", nil
	}

	closeErr := a.writer.Close()
	a.writer = nil
	_ = a.file.Sync()
	fileErr := a.file.Close()
	a.file = nil

	if closeErr != nil {
		_ = os.Remove(a.tmpPath)
		return "", fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		_ = os.Remove(a.tmpPath)
		return "", fmt.Errorf("close parquet file: %w", fileErr)
	}
	if a.rows == 0 {
		_ = os.Remove(a.tmpPath)
		return "", nil
	}
	if err := os.Rename(a.tmpPath, a.outPath); err != nil {
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return a.outPath, nil
}

// WriteArchiveBatch writes rows as a single published file in outDir.
func WriteArchiveBatch(outDir string, rows []ArchiveTurnRow) (string, error) {
	w, err := NewArchiveWriter(outDir)
	if err != nil {
		return "", err
	}
	if err := w.WriteGame(rows); err != nil {
		_, _ = w.Finalize()
		return "", err
	}
	return w.Finalize()
}

// ReadArchive loads every row of an archive file.
func ReadArchive(path string) ([]ArchiveTurnRow, error) {
	rows, err := parquet.ReadFile[ArchiveTurnRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
