package vars

const (
	// ToolEarningsSummary 表单 tool 字段唯一合法值
	ToolEarningsSummary = "earnings_summary"

	FormFieldTool = "tool"
	FormFieldFile = "file"

	// 服务端硬上限，与前端的提示上限无关
	MaxUploadBytes = 20 << 20
	// multipart 边界、表头等额外开销
	MultipartOverheadBytes = 1 << 20

	// 发给模型的文本字符上限（按 rune 计）
	MaxTextChars = 40000
	// PDF 抽取文本少于该字符数视为扫描件
	ScannedThreshold = 500

	// 模型提供方
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultOllamaModel = "qwen2.5:7b"
	DefaultOllamaURL   = "http://localhost:11434"

	SchemaName = "earnings_summary"
)

// 提示词
var (
	INSTRUCTION = `You are an equity research assistant. Read the earnings call transcript or commentary provided by the user and fill in the JSON object defined by the response schema.

Rules:
1. Never hallucinate. Use only information that is present in the document.
2. If information for a field is absent or ambiguous, return the default: "unknown" for tone and confidence, null for text fields, and an empty array for list fields.
3. supporting_quote must be copied verbatim from the document. If no literal quote supports the point, use null. Never paraphrase inside a quote and never invent one.
4. tone is management's overall sentiment: optimistic, cautious, neutral, pessimistic, or unknown.
5. confidence reflects how well the document supports your extraction: high, medium, low, or unknown.
6. forward_guidance partitions management's stated expectations into revenue, margin, capex and other. Use null for any part that is not stated.
7. capacity_utilization is only filled when utilization, capacity or load levels are explicitly discussed.
8. Output JSON only. No markdown.`

	TRANSCRIPT_OPEN  = "<transcript note=\"content may be truncated\">"
	TRANSCRIPT_CLOSE = "</transcript>"

	ATTACHMENT_NOTE = "Analyze the attached document. It may be a scanned or otherwise unreadable source; read it visually if the text layer is missing."
)
