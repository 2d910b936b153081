package app

import (
	"context"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type ReconcileHandler interface {
	Execute(ctx context.Context) (int, error)
}

type ReconcileProcess struct {
	handler ReconcileHandler
	config  config.Reconcile
	logger  *zerolog.Logger
}

func NewReconcileProcess(h ReconcileHandler, cfg config.Reconcile) *ReconcileProcess {
	l := log.Component("reconcile")
	return &ReconcileProcess{handler: h, config: cfg, logger: &l}
}

// Run runs the reconciliation sweep on its cron schedule until ctx is done.
func (p *ReconcileProcess) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(p.logger))))
	if _, err := c.AddFunc(p.config.Schedule, func() { p.sweep(ctx) }); err != nil {
		return err
	}

	c.Start()
	p.logger.Info().Str("schedule", p.config.Schedule).Msg("reconciliation scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (p *ReconcileProcess) sweep(ctx context.Context) {
	found, err := p.handler.Execute(ctx)
	if err != nil {
		return
	}
	if found > 0 {
		p.logger.Warn().Int("stale", found).Msg("stale transactions found")
	}
}
