package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/greedysnake/arena"
	"github.com/brensch/greedysnake/store"
)

// Produce plays games and forwards every turn and result to out, pausing
// delay between turns. out is closed when it returns.
func Produce(ctx context.Context, cfg arena.Config, games int, selector arena.Decider, writer *store.ArchiveWriter, delay time.Duration, out chan<- tea.Msg) error {
	defer close(out)

	send := func(msg tea.Msg) bool {
		select {
		case out <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	for i := 0; i < games; i++ {
		gameCfg := cfg
		gameCfg.Seed = cfg.Seed + int64(i)

		res, err := arena.Play(ctx, gameCfg, selector, func(t arena.Turn) {
			if !send(TurnMsg(t)) {
				return
			}
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
				}
			}
		})
		if err != nil {
			send(DoneMsg{Err: err})
			return err
		}
		if writer != nil {
			if err := writer.WriteGame(res.Rows); err != nil {
				send(DoneMsg{Err: err})
				return err
			}
		}
		if !send(GameDoneMsg(res)) {
			return ctx.Err()
		}
	}
	return nil
}

// Watch runs the dashboard until the user quits. Games are played in the
// background and stop when the dashboard exits.
func Watch(ctx context.Context, cfg arena.Config, games int, selector arena.Decider, writer *store.ArchiveWriter, delay time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan tea.Msg)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Produce(ctx, cfg, games, selector, writer, delay, updates)
	}()

	p := tea.NewProgram(NewModel(updates), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	cancel()
	prodErr := <-errCh
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	if prodErr != nil && !errors.Is(prodErr, context.Canceled) {
		return prodErr
	}
	return nil
}
