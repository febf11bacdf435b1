package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"earnings-digest/logic/ingestion/processors"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document/parser"
)

var ErrNoParser = errors.New("document parser unavailable")

// ExtractionFailure PDF 文本抽取失败。调用方决定是否降级为空文本继续
type ExtractionFailure struct {
	Reason string
	Cause  error
}

func (f *ExtractionFailure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Cause)
	}
	return f.Reason
}

func (f *ExtractionFailure) Unwrap() error {
	return f.Cause
}

// Result 抽取结果：要么 Text，要么 Failure
type Result struct {
	Text    string
	Failure *ExtractionFailure
}

func (r Result) OK() bool {
	return r.Failure == nil
}

func Ok(text string) Result {
	return Result{Text: text}
}

func Fail(reason string, cause error) Result {
	return Result{Failure: &ExtractionFailure{Reason: reason, Cause: cause}}
}

// TextExtractor 从页面描述格式（PDF）中抽取文本
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileName string) Result
}

// PDFExtractor 基于 eino pdf parser
type PDFExtractor struct {
	parser *pdf.PDFParser
}

func NewPDFExtractor(ctx context.Context) (*PDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("create pdf parser: %w", err)
	}
	return &PDFExtractor{parser: p}, nil
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte, fileName string) (res Result) {
	if e == nil || e.parser == nil {
		return Fail("pdf parser not configured", ErrNoParser)
	}
	// 底层 pdf 库遇到损坏文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			res = Fail("pdf parser panicked", fmt.Errorf("%v", r))
		}
	}()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data), parser.WithURI(fileName))
	if err != nil {
		return Fail("parse pdf failed", err)
	}
	docs = processors.Processor(ctx, docs)

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	return Ok(strings.Join(parts, "\n"))
}
