package postgres

import (
	"time"
)

// SummaryRun 对应 summary_runs 表，只记录运行元数据，不存文档和摘要内容
type SummaryRun struct {
	// ID 不使用 gorm.Model 的自增 ID，而是手动指定的 UUID
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	RequestID string    `gorm:"column:request_id;type:varchar(64);index"`
	FileName  string    `gorm:"column:file_name;type:varchar(255)"`
	MediaType string    `gorm:"column:media_type;type:varchar(127)"`
	SizeBytes int64     `gorm:"column:size_bytes"`
	// text / binary，加载前就失败时为空
	Mode      string    `gorm:"column:mode;type:varchar(16)"`
	// ok 或错误分类
	Outcome   string    `gorm:"column:outcome;type:varchar(32);index;not null"`
	LatencyMS int64     `gorm:"column:latency_ms"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

// OutcomeOK 成功运行的 outcome
const OutcomeOK = "ok"

// TableName 强制指定表名
func (SummaryRun) TableName() string {
	return "summary_runs"
}
