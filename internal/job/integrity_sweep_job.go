package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/store"
)

// IntegritySweepJob re-parses every persisted embedding and reports
// the rows the exact-search path would have to skip.
type IntegritySweepJob struct {
	store *store.PgStore
}

func NewIntegritySweepJob(pg *store.PgStore) *IntegritySweepJob {
	return &IntegritySweepJob{store: pg}
}

func (j *IntegritySweepJob) Name() string {
	return "integrity_sweep"
}

func (j *IntegritySweepJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	checked, faults, err := j.store.SweepIntegrity(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("integrity sweep done",
		zap.Int("checked", checked), zap.Int("faults", faults))
	return nil
}
