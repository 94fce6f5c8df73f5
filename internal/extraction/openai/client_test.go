package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"docvault-backend/internal/extraction"
)

// fakeOpenAI serves chat completions: the first call gets extractReply, every
// later call gets summaryReply. Either can be forced to fail with a status.
type fakeOpenAI struct {
	calls          atomic.Int64
	extractReply   string
	summaryReply   string
	extractStatus  int
	summaryStatus  int
	lastExtractReq chatRequest
}

func (f *fakeOpenAI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := f.calls.Add(1)

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		reply, status := f.summaryReply, f.summaryStatus
		if n == 1 {
			reply, status = f.extractReply, f.extractStatus
			f.lastExtractReq = req
		}
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}

		resp := chatResponse{}
		resp.Choices = []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: reply}}}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func newTestClient(t *testing.T, fake *fakeOpenAI) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	client, err := NewClient("test-key", "gpt-4o", "gpt-3.5-turbo")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestExtractStructuredReply(t *testing.T) {
	fake := &fakeOpenAI{
		extractReply: `{"invoiceNumber":"INV-9","vendor":{"name":"Acme"}}`,
		summaryReply: "An invoice from Acme.",
	}
	client := newTestClient(t, fake)

	result, err := client.Extract(context.Background(), "Invoice INV-9 from Acme", extraction.TypeInvoice)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if result.Fields["invoiceNumber"] != "INV-9" {
		t.Errorf("fields = %v", result.Fields)
	}
	if result.KeyValuePairs["vendor.name"] != "Acme" {
		t.Errorf("keyValuePairs = %v", result.KeyValuePairs)
	}
	if result.Summary != "An invoice from Acme." {
		t.Errorf("summary = %q", result.Summary)
	}
	if result.RawText != "Invoice INV-9 from Acme" {
		t.Errorf("rawText = %q", result.RawText)
	}
	if got := fake.lastExtractReq; got.Model != "gpt-4o" || got.MaxTokens != 1500 {
		t.Errorf("extract request model=%q maxTokens=%d", got.Model, got.MaxTokens)
	}
	if fake.lastExtractReq.Temperature == nil || *fake.lastExtractReq.Temperature != 0.2 {
		t.Errorf("extract temperature = %v", fake.lastExtractReq.Temperature)
	}
	if !strings.Contains(fake.lastExtractReq.Messages[1].Content, "invoice number") {
		t.Errorf("invoice prompt not used: %q", fake.lastExtractReq.Messages[1].Content)
	}
}

func TestExtractNonJSONReplyDegrades(t *testing.T) {
	fake := &fakeOpenAI{
		extractReply: "The document appears to be an invoice but I cannot structure it.",
		summaryReply: "Some summary.",
	}
	client := newTestClient(t, fake)

	longText := strings.Repeat("x", 1500)
	result, err := client.Extract(context.Background(), longText, extraction.TypeOther)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if result.Fields != nil {
		t.Errorf("fields should be nil, got %v", result.Fields)
	}
	if len(result.KeyValuePairs) != 0 {
		t.Errorf("keyValuePairs should be empty, got %v", result.KeyValuePairs)
	}
	if len(result.RawText) != 1000 {
		t.Errorf("rawText length = %d, want 1000", len(result.RawText))
	}
	if result.Summary != "Some summary." {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestExtractFencedJSONReply(t *testing.T) {
	fake := &fakeOpenAI{
		extractReply: "```json\n{\"merchant\":\"Cafe\"}\n```",
		summaryReply: "A receipt.",
	}
	client := newTestClient(t, fake)

	result, err := client.Extract(context.Background(), "receipt text", extraction.TypeReceipt)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Fields["merchant"] != "Cafe" {
		t.Errorf("fields = %v", result.Fields)
	}
}

func TestExtractModelFailure(t *testing.T) {
	fake := &fakeOpenAI{extractStatus: http.StatusInternalServerError}
	client := newTestClient(t, fake)

	_, err := client.Extract(context.Background(), "text", extraction.TypeOther)
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "extraction failed") {
		t.Errorf("error = %v", err)
	}
}

func TestSummaryFailureDegrades(t *testing.T) {
	fake := &fakeOpenAI{
		extractReply:  `{"a":"b"}`,
		summaryStatus: http.StatusInternalServerError,
	}
	client := newTestClient(t, fake)

	result, err := client.Extract(context.Background(), "text", extraction.TypeOther)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Summary != "Error generating summary" {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "gpt-4o", "gpt-3.5-turbo"); err == nil {
		t.Error("want error for missing API key")
	}
	if _, err := NewClient("key", "", "gpt-3.5-turbo"); err == nil {
		t.Error("want error for missing model")
	}
	if _, err := NewClient("key", "gpt-4o", ""); err == nil {
		t.Error("want error for missing summary model")
	}
}

func TestInstructionForUnknownType(t *testing.T) {
	if instructionFor("MYSTERY") != promptByType[extraction.TypeOther] {
		t.Error("unknown type should use the generic prompt")
	}
}
