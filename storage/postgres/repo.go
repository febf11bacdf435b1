package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// RunRepo 封装对 summary_runs 表的所有操作
type RunRepo struct {
	db *gorm.DB
}

func NewRunRepo(db *gorm.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Create 写入一条运行记录
func (r *RunRepo) Create(ctx context.Context, run *SummaryRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// DeleteBefore 用于定时任务清理过期流水
func (r *RunRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&SummaryRun{})
	return result.RowsAffected, result.Error
}
