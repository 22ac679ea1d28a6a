package prober

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"linegate/internal/panel"
)

// Prober periodically checks panel reachability so /health can report
// panel state without hitting the panel on every probe request.
type Prober struct {
	cron   *cron.Cron
	client panel.Client
	logger *zap.Logger

	mu        sync.RWMutex
	ok        bool
	lastErr   string
	checkedAt time.Time
}

// Status is a snapshot of the last probe.
type Status struct {
	OK        bool
	LastError string
	CheckedAt time.Time
}

// New creates a prober for the given panel client.
func New(client panel.Client, logger *zap.Logger) *Prober {
	return &Prober{
		cron:   cron.New(),
		client: client,
		logger: logger,
	}
}

// Start probes once immediately, then every two minutes.
func (p *Prober) Start() {
	p.probe()
	p.cron.AddFunc("@every 2m", p.probe)
	p.cron.Start()
}

// Stop halts the schedule and returns a context that closes once
// running jobs finish.
func (p *Prober) Stop() context.Context {
	return p.cron.Stop()
}

// Status returns the result of the most recent probe.
func (p *Prober) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Status{OK: p.ok, LastError: p.lastErr, CheckedAt: p.checkedAt}
}

func (p *Prober) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := p.client.Ping(ctx)

	p.mu.Lock()
	p.checkedAt = time.Now()
	p.ok = err == nil
	if err != nil {
		p.lastErr = err.Error()
	} else {
		p.lastErr = ""
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("panel probe failed", zap.Error(err))
	} else {
		p.logger.Debug("panel probe ok")
	}
}
