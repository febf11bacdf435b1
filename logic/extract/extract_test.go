package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"earnings-digest/logic/chat"
	contract "earnings-digest/logic/schema"
	"earnings-digest/types"
	"earnings-digest/vars"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeModel struct {
	content string
	err     error
	block   bool
	calls   int
	got     []*schema.Message
}

func (m *fakeModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls++
	m.got = input
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.content, nil), nil
}

func (m *fakeModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type fakeFactory struct {
	model *fakeModel
	err   error
	calls int
}

func (f *fakeFactory) NewChatModel(_ context.Context, _ *contract.Contract) (model.BaseChatModel, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

func textPrompt(s string) types.PromptContext {
	return types.PromptContext{
		Instruction: vars.INSTRUCTION,
		Parts:       []types.MessagePart{types.TextPart{Text: s}},
	}
}

func newClient(cfg Config, m *fakeModel) (*Client, *fakeFactory) {
	f := &fakeFactory{model: m}
	return NewClient(cfg, f, contract.MustNew()), f
}

func openaiConfig() Config {
	return Config{Provider: vars.ProviderOpenAI, APIKey: "sk-test", Timeout: time.Second}
}

func requireKind(t *testing.T, err error, kind types.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", kind)
	}
	if got := types.Classify(err).Kind; got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
}

func TestExtractMissingKey(t *testing.T) {
	m := &fakeModel{content: `{}`}
	c, f := newClient(Config{Provider: vars.ProviderOpenAI, Timeout: time.Second}, m)

	_, err := c.Extract(context.Background(), textPrompt("hello"))
	requireKind(t, err, types.KindConfigMissing)
	if f.calls != 0 || m.calls != 0 {
		t.Errorf("no model should be built or called, factory=%d model=%d", f.calls, m.calls)
	}
}

func TestExtractOllamaNeedsNoKey(t *testing.T) {
	m := &fakeModel{content: `{"tone":"neutral"}`}
	c, _ := newClient(Config{Provider: vars.ProviderOllama, Timeout: time.Second}, m)

	raw, err := c.Extract(context.Background(), textPrompt("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if raw["tone"] != "neutral" {
		t.Errorf("raw = %v", raw)
	}
}

func TestExtractOllamaRejectsAttachment(t *testing.T) {
	m := &fakeModel{content: `{}`}
	c, _ := newClient(Config{Provider: vars.ProviderOllama, Timeout: time.Second}, m)

	pc := types.PromptContext{
		Instruction: vars.INSTRUCTION,
		Parts: []types.MessagePart{
			types.TextPart{Text: vars.ATTACHMENT_NOTE},
			types.BinaryPart{MediaType: types.MediaTypePDF, FileName: "a.pdf", Data: []byte("%PDF")},
		},
	}
	_, err := c.Extract(context.Background(), pc)
	requireKind(t, err, types.KindUpstreamModel)
	if m.calls != 0 {
		t.Error("model should not be called")
	}
}

func TestExtractTextMessages(t *testing.T) {
	m := &fakeModel{content: "```json\n{\"tone\":\"optimistic\",\"extra\":1}\n```"}
	c, _ := newClient(openaiConfig(), m)

	raw, err := c.Extract(context.Background(), textPrompt("Revenue grew 12%."))
	if err != nil {
		t.Fatal(err)
	}
	if raw["tone"] != "optimistic" {
		t.Errorf("raw = %v", raw)
	}
	if m.calls != 1 {
		t.Fatalf("calls = %d", m.calls)
	}
	if len(m.got) != 2 {
		t.Fatalf("messages = %d", len(m.got))
	}
	if m.got[0].Role != schema.System || m.got[0].Content != vars.INSTRUCTION {
		t.Errorf("system message = %+v", m.got[0])
	}
	if m.got[1].Role != schema.User || m.got[1].Content != "Revenue grew 12%." {
		t.Errorf("user message = %+v", m.got[1])
	}
}

func TestExtractUpstreamFailures(t *testing.T) {
	cases := map[string]*fakeModel{
		"error": {err: errors.New("503 service unavailable")},
		"empty": {content: "   "},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newClient(openaiConfig(), m)
			_, err := c.Extract(context.Background(), textPrompt("x"))
			requireKind(t, err, types.KindUpstreamModel)
		})
	}
}

func TestExtractFactoryFailure(t *testing.T) {
	f := &fakeFactory{err: errors.New("bad base url")}
	c := NewClient(openaiConfig(), f, contract.MustNew())
	_, err := c.Extract(context.Background(), textPrompt("x"))
	requireKind(t, err, types.KindUpstreamModel)
}

func TestExtractTimeout(t *testing.T) {
	m := &fakeModel{block: true}
	cfg := openaiConfig()
	cfg.Timeout = 20 * time.Millisecond
	c, _ := newClient(cfg, m)

	start := time.Now()
	_, err := c.Extract(context.Background(), textPrompt("x"))
	requireKind(t, err, types.KindUpstreamModel)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause should be deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout not applied")
	}
}

func TestExtractUnparseable(t *testing.T) {
	for _, content := range []string{"not json", `["a","b"]`, `"tone"`, "{"} {
		m := &fakeModel{content: content}
		c, _ := newClient(openaiConfig(), m)
		_, err := c.Extract(context.Background(), textPrompt("x"))
		requireKind(t, err, types.KindSchemaParse)
	}
}

func TestToMessagesBinary(t *testing.T) {
	data := []byte("%PDF-1.7 scanned")
	pc := types.PromptContext{
		Instruction: vars.INSTRUCTION,
		Parts: []types.MessagePart{
			types.TextPart{Text: vars.ATTACHMENT_NOTE},
			types.BinaryPart{MediaType: types.MediaTypePDF, FileName: "q3.pdf", Data: data},
		},
	}
	msgs, binary, err := ToMessages(pc)
	if err != nil {
		t.Fatal(err)
	}
	if !binary || len(msgs) != 2 {
		t.Fatalf("binary=%v len=%d", binary, len(msgs))
	}
	parts := msgs[1].UserInputMultiContent
	if len(parts) != 2 {
		t.Fatalf("parts = %d", len(parts))
	}
	if parts[0].Type != schema.ChatMessagePartTypeText || parts[0].Text != vars.ATTACHMENT_NOTE {
		t.Errorf("first part = %+v", parts[0])
	}
	file := parts[1].File
	if parts[1].Type != schema.ChatMessagePartTypeFileURL || file == nil {
		t.Fatalf("second part = %+v", parts[1])
	}
	if file.MIMEType != types.MediaTypePDF || file.Name != "q3.pdf" {
		t.Errorf("file = %+v", file)
	}
	if file.Base64Data == nil || *file.Base64Data != base64.StdEncoding.EncodeToString(data) {
		t.Error("attachment bytes not preserved")
	}
}

func TestToMessagesEmpty(t *testing.T) {
	if _, _, err := ToMessages(types.PromptContext{Instruction: "x"}); err == nil {
		t.Error("empty prompt should fail")
	}
}

func TestDecode(t *testing.T) {
	raw, err := Decode("```\n{\"confidence\":\"low\"}\n```")
	if err != nil {
		t.Fatal(err)
	}
	if raw["confidence"] != "low" {
		t.Errorf("raw = %v", raw)
	}
}

// 走真实的 openai 组件，只把上游换成本地服务
func TestExtractOpenAIAttachmentReachesUpstream(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"{\"tone\":\"cautious\"}"},"finish_reason":"stop"}],`+
			`"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer srv.Close()

	cfg := openaiConfig()
	factory := chat.NewOpenAIFactory(vars.LLMConfig{
		Provider: vars.ProviderOpenAI,
		APIKey:   cfg.APIKey,
		BaseURL:  srv.URL,
		Model:    vars.DefaultOpenAIModel,
		Timeout:  5 * time.Second,
	})
	c := NewClient(cfg, factory, contract.MustNew())

	raw, err := c.Extract(context.Background(), textPrompt("Revenue grew 12%."))
	if err != nil {
		t.Fatalf("text prompt: %v", err)
	}
	if raw["tone"] != "cautious" {
		t.Errorf("raw = %v", raw)
	}

	data := []byte("%PDF-1.4 scanned image bytes")
	pc := types.PromptContext{
		Instruction: vars.INSTRUCTION,
		Parts: []types.MessagePart{
			types.TextPart{Text: vars.ATTACHMENT_NOTE},
			types.BinaryPart{MediaType: types.MediaTypePDF, FileName: "q3.pdf", Data: data},
		},
	}
	raw, err = c.Extract(context.Background(), pc)
	if err != nil {
		t.Fatalf("attachment prompt: %v", err)
	}
	if raw["tone"] != "cautious" {
		t.Errorf("raw = %v", raw)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("upstream requests = %d, want 2", len(bodies))
	}
	want := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)
	if !strings.Contains(bodies[1], want) {
		t.Errorf("attachment bytes missing from request body: %s", bodies[1])
	}
	if !strings.Contains(bodies[1], `"type":"file"`) {
		t.Errorf("file part missing from request body: %s", bodies[1])
	}
}
