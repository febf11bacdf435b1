package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"earnings-digest/api/response"
	"earnings-digest/pkg/logger"
	"earnings-digest/types"
	"earnings-digest/vars"

	"github.com/gin-gonic/gin"
)

type Summarizer interface {
	Summarize(ctx context.Context, doc *types.UploadedDocument) (*types.EarningsSummary, error)
}

type SummaryHandler struct {
	svc        Summarizer
	schemaJSON []byte
	maxBytes   int64
}

func NewSummaryHandler(svc Summarizer, schemaJSON []byte, maxBytes int64) *SummaryHandler {
	if maxBytes <= 0 {
		maxBytes = vars.MaxUploadBytes
	}
	return &SummaryHandler{
		svc:        svc,
		schemaJSON: schemaJSON,
		maxBytes:   maxBytes,
	}
}

// Summarize 上传一个文件，返回结构化摘要
func (h *SummaryHandler) Summarize(c *gin.Context) {
	log := logger.WithContext(c.Request.Context())

	// 超过上限时读 body 直接报错，不会把整个文件读进内存
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+vars.MultipartOverheadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("summary.request.bad_form", "error", err)
		response.Fail(c, formError(err, h.maxBytes))
		return
	}

	if tool := firstValue(form.Value[vars.FormFieldTool]); tool != vars.ToolEarningsSummary {
		response.Fail(c, types.InputValidation("unsupported tool: expected \""+vars.ToolEarningsSummary+"\""))
		return
	}

	files := form.File[vars.FormFieldFile]
	if len(files) == 0 {
		response.Fail(c, types.InputValidation("no file received, check that the field name is 'file'"))
		return
	}
	fh := files[0]
	if fh.Size > h.maxBytes {
		response.Fail(c, types.PayloadTooLarge(h.maxBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Fail(c, types.InputValidation("uploaded file could not be read"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		response.Fail(c, types.InputValidation("uploaded file could not be read"))
		return
	}

	doc := &types.UploadedDocument{
		FileName:  filepath.Base(fh.Filename),
		MediaType: fh.Header.Get("Content-Type"),
		Data:      data,
	}
	summary, err := h.svc.Summarize(c.Request.Context(), doc)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, summary)
}

// Schema 返回摘要的 JSON Schema，给前端渲染用
func (h *SummaryHandler) Schema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", h.schemaJSON)
}

func formError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return types.PayloadTooLarge(limit)
	}
	return types.InputValidation("request must be multipart/form-data with 'tool' and 'file' fields")
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
