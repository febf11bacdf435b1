package processors

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Processor 清洗 PDF 解析出来的文档：去掉 NUL、非法 UTF-8 和首尾空白，丢弃空文档
func Processor(ctx context.Context, src []*schema.Document) []*schema.Document {
	var cleanDocs []*schema.Document
	for _, doc := range src {
		if doc == nil {
			continue
		}
		content := CleanText(doc.Content)
		if content == "" {
			continue
		}
		doc.Content = content
		cleanDocs = append(cleanDocs, doc)
	}
	return cleanDocs
}

func CleanText(content string) string {
	// 移除 Null 字节 (常见 PDF 解析错误)
	content = strings.ReplaceAll(content, "\x00", "")
	content = strings.ToValidUTF8(content, "")
	return strings.TrimSpace(content)
}
