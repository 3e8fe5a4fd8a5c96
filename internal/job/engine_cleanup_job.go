package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quackscience/copilot-extension-duckdb/internal/engine"
)

// EngineCleanupJob closes database handles that sat idle beyond the
// configured window, so rarely-seen identities do not pin file handles
// for the life of the process.
type EngineCleanupJob struct {
	engine  *engine.Engine
	maxIdle time.Duration
}

func NewEngineCleanupJob(eng *engine.Engine, maxIdle time.Duration) *EngineCleanupJob {
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}
	return &EngineCleanupJob{engine: eng, maxIdle: maxIdle}
}

func (j *EngineCleanupJob) Name() string {
	return "engine_cleanup"
}

func (j *EngineCleanupJob) Run(ctx context.Context) error {
	closed := j.engine.CloseIdle(j.maxIdle)
	if closed > 0 {
		logutil.GetLogger(ctx).Info("closed idle databases",
			zap.Int("closed", closed), zap.Int("open", j.engine.OpenCount()))
	}
	return nil
}
