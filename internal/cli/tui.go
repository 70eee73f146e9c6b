package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdxmph/scheduler-tui/internal/auth"
	"github.com/pdxmph/scheduler-tui/internal/logger"
	"github.com/pdxmph/scheduler-tui/internal/metrics"
	"github.com/pdxmph/scheduler-tui/internal/planner"
	"github.com/pdxmph/scheduler-tui/internal/tui"
)

// runTUI opens the interactive planner until the user quits
func (a *app) runTUI(ctx context.Context) error {
	log := logger.For("cli")

	backend, err := a.openBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := metrics.Serve(ctx, a.cfg.Metrics.Addr); err != nil {
			log.WithError(err).Error("metrics endpoint stopped")
		}
	}()

	var program *tea.Program
	started := make(chan struct{})

	svc := auth.NewLocal(backend)
	p := planner.New(backend, svc, a.plannerOptions(func(n planner.Notice) {
		<-started
		program.Send(tui.NoticeMsg(n))
	}))

	program = tea.NewProgram(tui.New(p, svc), tea.WithAltScreen())
	close(started)
	p.Start()

	log.Info("starting planner")
	_, runErr := program.Run()

	// Close flushes anything still waiting on the debounce
	return errors.Join(runErr, p.Close())
}
