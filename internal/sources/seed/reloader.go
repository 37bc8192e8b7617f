package seed

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/records"
)

// Reloader imports the seed file into the record collection at startup
// and again on every manual trigger.
type Reloader struct {
	loader        *Loader
	mapper        *Mapper
	records       *records.Service
	logger        logger.Logger
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewReloader creates a seed reloader
func NewReloader(
	seedFile string,
	svc *records.Service,
	log logger.Logger,
	manualTrigger chan struct{},
) *Reloader {
	return &Reloader{
		loader:        NewLoader(seedFile),
		mapper:        NewMapper(),
		records:       svc,
		logger:        log,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once, then re-imports on each trigger
func (r *Reloader) Start(ctx context.Context) error {
	if _, err := r.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}

	go func() {
		for {
			select {
			case <-r.manualTrigger:
				r.logger.Info("manual seed import triggered")
				if _, err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to import seed file",
						logger.Error(err))
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (r *Reloader) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Reload reads the seed file and adds the stores not stored yet
func (r *Reloader) Reload(ctx context.Context) (records.ImportResult, error) {
	r.logger.Info("importing seed file", logger.String("file", r.loader.Path()))

	f, err := r.loader.Load()
	if err != nil {
		return records.ImportResult{}, fmt.Errorf("failed to load seed: %w", err)
	}

	incoming, err := r.mapper.MapRecords(f)
	if err != nil {
		return records.ImportResult{}, fmt.Errorf("failed to map seed: %w", err)
	}

	res, err := r.records.Import(ctx, incoming)
	if err != nil {
		return records.ImportResult{}, fmt.Errorf("failed to import seed: %w", err)
	}
	return res, nil
}
