package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
	"github.com/peerloop/peerloop/internal/metrics"
)

// LoadFunc constructs and verifies the embedding model. Called at most once
// per process unless it fails.
type LoadFunc func(ctx context.Context) (domain.BatchEmbedder, error)

// Provider hands out the process-wide embedding model, loading it lazily on
// first use. Concurrent first callers block on the same load and observe
// the same instance; a failed load leaves the provider empty so a later
// call retries. The model is immutable once loaded.
type Provider struct {
	load    LoadFunc
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	model domain.BatchEmbedder
}

// NewProvider creates a lazy model provider. timeout bounds a single load
// attempt.
func NewProvider(load LoadFunc, timeout time.Duration, logger *zap.Logger) *Provider {
	return &Provider{load: load, timeout: timeout, logger: logger}
}

// Model returns the loaded model, loading it first if needed.
// Fails with domain.ErrModelLoad when the underlying load fails; the error
// is scoped to the triggering callers and does not poison the process.
func (p *Provider) Model(ctx context.Context) (domain.BatchEmbedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return p.model, nil
	}

	loadCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	model, err := p.load(loadCtx)
	if err != nil {
		metrics.ModelLoadsTotal.WithLabelValues("error").Inc()
		p.logger.Error("Embedding model load failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrModelLoad, err)
	}

	metrics.ModelLoadsTotal.WithLabelValues("success").Inc()
	p.logger.Info("Embedding model loaded", zap.Duration("took", time.Since(start)))

	p.model = model
	return p.model, nil
}
