package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner 删除 cutoff 之前的运行流水
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneRuns 执行一次清理
func PruneRuns(ctx context.Context, p Pruner, retention time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-retention)
	rows, err := p.DeleteBefore(ctx, cutoff)
	if err != nil {
		slog.Error("ledger.prune.failed", "error", err)
		return 0, err
	}
	slog.Info("ledger.prune.ok", "rows", rows, "cutoff", cutoff.Format(time.RFC3339))
	return rows, nil
}

// StartCronJob schedule 为标准 5 段 cron 表达式，默认每天凌晨 2 点。返回的 cron 由调用方 Stop
func StartCronJob(p Pruner, schedule string, retention time.Duration) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = PruneRuns(ctx, p, retention, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prune cron %q: %w", schedule, err)
	}

	c.Start()
	return c, nil
}
