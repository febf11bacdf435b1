package types

// Mode 决定送给模型的是文本还是原始文件
type Mode string

const (
	ModeText   Mode = "text"
	ModeBinary Mode = "binary"
)

const MediaTypePDF = "application/pdf"

// UploadedDocument 单次请求上传的文件，只在请求内存活
type UploadedDocument struct {
	FileName  string
	MediaType string
	Data      []byte
}

func (d *UploadedDocument) Size() int64 {
	return int64(len(d.Data))
}

// ExtractedContent 文本模式只有 Text 有值；二进制模式携带原始字节和媒体类型
type ExtractedContent struct {
	Mode      Mode
	Text      string
	Data      []byte
	MediaType string
	FileName  string
}

func TextContent(text string) *ExtractedContent {
	return &ExtractedContent{Mode: ModeText, Text: text}
}

func BinaryContent(doc *UploadedDocument) *ExtractedContent {
	return &ExtractedContent{
		Mode:      ModeBinary,
		Data:      doc.Data,
		MediaType: doc.MediaType,
		FileName:  doc.FileName,
	}
}
