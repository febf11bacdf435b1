package service

import (
	"context"
	"time"

	"earnings-digest/logic/normalize"
	"earnings-digest/logic/prompt"
	"earnings-digest/pkg/logger"
	"earnings-digest/storage/postgres"
	"earnings-digest/types"

	"github.com/google/uuid"
)

type DocumentLoader interface {
	Load(ctx context.Context, doc *types.UploadedDocument) (*types.ExtractedContent, error)
}

type Extractor interface {
	Extract(ctx context.Context, pc types.PromptContext) (types.RawSummary, error)
}

// RunRecorder 运行流水，可选
type RunRecorder interface {
	Create(ctx context.Context, run *postgres.SummaryRun) error
}

// SummaryService 一次请求的完整流程：加载 -> 组装提示词 -> 调用模型 -> 归一化。
// 各步骤之间没有共享可变状态，可并发调用
type SummaryService struct {
	loader  DocumentLoader
	builder *prompt.Builder
	client  Extractor
	runs    RunRecorder
}

// 构造函数：依赖注入。runs 为 nil 时不记录流水
func NewSummaryService(loader DocumentLoader, builder *prompt.Builder, client Extractor, runs RunRecorder) *SummaryService {
	return &SummaryService{
		loader:  loader,
		builder: builder,
		client:  client,
		runs:    runs,
	}
}

// Summarize 返回的错误都是 *types.ClassifiedError
func (s *SummaryService) Summarize(ctx context.Context, doc *types.UploadedDocument) (*types.EarningsSummary, error) {
	log := logger.WithContext(ctx)
	start := time.Now()

	run := &postgres.SummaryRun{
		ID:        uuid.New().String(),
		RequestID: logger.RequestID(ctx),
	}
	if doc != nil {
		run.FileName = doc.FileName
		run.SizeBytes = doc.Size()
	}

	fail := func(err error) (*types.EarningsSummary, error) {
		ce := types.Classify(err)
		log.Warn("summary.extract.failed",
			"kind", ce.Kind, "error", ce, "elapsed_ms", time.Since(start).Milliseconds())
		run.Outcome = string(ce.Kind)
		s.record(ctx, run, start)
		return nil, ce
	}

	log.Info("summary.extract.start", "file", run.FileName, "size_bytes", run.SizeBytes)

	content, err := s.loader.Load(ctx, doc)
	if err != nil {
		return fail(err)
	}
	run.MediaType = doc.MediaType
	run.Mode = string(content.Mode)

	pc := s.builder.Build(content)

	raw, err := s.client.Extract(ctx, pc)
	if err != nil {
		return fail(err)
	}

	summary, defaulted := normalize.Normalize(raw)
	if len(defaulted) > 0 {
		log.Info("summary.normalize.defaulted", "fields", defaulted)
	}

	run.Outcome = postgres.OutcomeOK
	s.record(ctx, run, start)
	log.Info("summary.extract.ok",
		"mode", content.Mode, "tone", summary.Tone, "elapsed_ms", time.Since(start).Milliseconds())
	return &summary, nil
}

// record 写流水失败只打日志，不影响响应
func (s *SummaryService) record(ctx context.Context, run *postgres.SummaryRun, start time.Time) {
	if s.runs == nil {
		return
	}
	run.LatencyMS = time.Since(start).Milliseconds()
	run.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.runs.Create(ctx, run); err != nil {
		logger.WithContext(ctx).Warn("ledger.record.failed", "error", err)
	}
}
