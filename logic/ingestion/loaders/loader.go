package loaders

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"earnings-digest/logic/ingestion/parser"
	"earnings-digest/pkg/logger"
	"earnings-digest/types"

	"github.com/gabriel-vasile/mimetype"
)

// ScanPolicy 判断 PDF 是否为扫描件：Signal(text) < Threshold 即视为扫描件
type ScanPolicy struct {
	Threshold int
	Signal    func(text string) int
}

// CharCount 默认信号：去掉首尾空白后的字符数
func CharCount(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

func DefaultScanPolicy(threshold int) ScanPolicy {
	return ScanPolicy{Threshold: threshold, Signal: CharCount}
}

func (p ScanPolicy) IsScanned(text string) bool {
	signal := p.Signal
	if signal == nil {
		signal = CharCount
	}
	return signal(text) < p.Threshold
}

type Config struct {
	MaxBytes int64
	Policy   ScanPolicy
}

// Loader 把上传的字节变成文本或二进制兜底。无文件系统和网络访问
type Loader struct {
	cfg       Config
	extractor parser.TextExtractor
}

func NewLoader(cfg Config, extractor parser.TextExtractor) *Loader {
	return &Loader{cfg: cfg, extractor: extractor}
}

func (l *Loader) Load(ctx context.Context, doc *types.UploadedDocument) (*types.ExtractedContent, error) {
	log := logger.WithContext(ctx)

	if doc == nil || len(doc.Data) == 0 {
		return nil, types.InputValidation("a non-empty file is required")
	}
	if l.cfg.MaxBytes > 0 && doc.Size() > l.cfg.MaxBytes {
		return nil, types.PayloadTooLarge(l.cfg.MaxBytes)
	}

	doc.MediaType = ResolveMediaType(doc.MediaType, doc.FileName, doc.Data)
	if !IsPageDescription(doc.MediaType, doc.FileName) {
		return types.TextContent(DecodeText(doc.Data)), nil
	}

	start := time.Now()
	var text string
	res := l.extract(ctx, doc)
	if res.OK() {
		text = res.Text
	} else {
		// 抽取失败不终止请求，按空文本处理，交给扫描件判断走二进制兜底
		log.Warn("summary.loader.pdf_parse_failed",
			"file", doc.FileName, "error", res.Failure, "elapsed_ms", time.Since(start).Milliseconds())
	}

	if l.cfg.Policy.IsScanned(text) {
		log.Info("summary.loader.scanned_fallback",
			"file", doc.FileName, "chars", CharCount(text), "threshold", l.cfg.Policy.Threshold)
		return types.BinaryContent(doc), nil
	}

	log.Info("summary.loader.pdf_text",
		"file", doc.FileName, "chars", CharCount(text), "elapsed_ms", time.Since(start).Milliseconds())
	return types.TextContent(text), nil
}

func (l *Loader) extract(ctx context.Context, doc *types.UploadedDocument) parser.Result {
	if l.extractor == nil {
		return parser.Fail("pdf parser not configured", parser.ErrNoParser)
	}
	return l.extractor.Extract(ctx, doc.Data, doc.FileName)
}

// DecodeText 非 PDF 直接按 UTF-8 解码，非法字节替换为 U+FFFD
func DecodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// ResolveMediaType 优先使用声明的类型；缺失或为 octet-stream 时按扩展名推断，最后再嗅探内容
func ResolveMediaType(declared, fileName string, data []byte) string {
	mt := normalizeMediaType(declared)
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt := normalizeMediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))); byExt != "" {
		return byExt
	}
	if len(data) > 0 {
		return normalizeMediaType(mimetype.Detect(data).String())
	}
	return "application/octet-stream"
}

func IsPageDescription(mediaType, fileName string) bool {
	if normalizeMediaType(mediaType) == types.MediaTypePDF {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

func normalizeMediaType(mt string) string {
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return strings.ToLower(parsed)
	}
	return strings.ToLower(mt)
}
