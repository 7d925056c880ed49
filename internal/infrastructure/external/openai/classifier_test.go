package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/bharatbiz/bizagent/internal/domain/intent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCompletions answers every chat completion with content and records the
// last request body
type fakeCompletions struct {
	content string
	status  int
	lastReq map[string]interface{}
}

func (f *fakeCompletions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &f.lastReq)

	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		return
	}

	resp := map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []interface{}{
			map[string]interface{}{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": f.content},
			},
		},
		"usage": map[string]interface{}{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestClassifier(t *testing.T, fake *fakeCompletions) *Classifier {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c := NewClassifier(Config{APIKey: "test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"}, nil, catalog.Default(), zap.NewNop())
	c.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestClassifier_Classify(t *testing.T) {
	fake := &fakeCompletions{content: `{"intent":"billing","message":"Bill ready","extractedData":[{"name":"rice","quantity":2}]}`}
	c := newTestClassifier(t, fake)

	got, err := c.Classify(context.Background(), "2 kilo chawal")
	require.NoError(t, err)
	assert.Equal(t, "billing", got.Intent)
	assert.Equal(t, "Bill ready", got.Message)

	items, ok := got.ExtractedData.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)

	assert.Equal(t, "gpt-4o-mini", fake.lastReq["model"])
	format, _ := fake.lastReq["response_format"].(map[string]interface{})
	assert.Equal(t, "json_object", format["type"])

	messages, _ := fake.lastReq["messages"].([]interface{})
	require.Len(t, messages, 2)
	system := messages[0].(map[string]interface{})["content"].(string)
	assert.Contains(t, system, "2024-06-01")
	assert.Contains(t, system, "Basmati Rice (kg)")
	user := messages[1].(map[string]interface{})["content"].(string)
	assert.Equal(t, "2 kilo chawal", user)
}

func TestClassifier_ExtractsFencedJSON(t *testing.T) {
	fake := &fakeCompletions{content: "Here you go:\n```json\n{\"intent\":\"query\",\"message\":\"ok {fine}\"}\n```"}
	c := newTestClassifier(t, fake)

	got, err := c.Classify(context.Background(), "aaj kitni sale hui")
	require.NoError(t, err)
	assert.Equal(t, "query", got.Intent)
	assert.Equal(t, "ok {fine}", got.Message)
}

func TestClassifier_ToleratesUnexpectedFieldTypes(t *testing.T) {
	t.Run("numeric intent", func(t *testing.T) {
		c := newTestClassifier(t, &fakeCompletions{content: `{"intent": 3, "message": "ok", "extractedData": {}}`})
		got, err := c.Classify(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, intent.KindUnknown, intent.Resolve(*got).Kind)
		assert.Equal(t, "ok", got.Message)
	})

	t.Run("array message keeps the bill", func(t *testing.T) {
		c := newTestClassifier(t, &fakeCompletions{content: `{"intent":"billing","message":["a"],"extractedData":[{"name":"rice"}]}`})
		got, err := c.Classify(context.Background(), "ek kilo chawal")
		require.NoError(t, err)
		assert.Empty(t, got.Message)

		res := intent.Resolve(*got)
		require.Equal(t, intent.KindBilling, res.Kind)
		require.Len(t, res.Billing.Items, 1)
		assert.Equal(t, "rice", res.Billing.Items[0].Name)
	})
}

func TestClassifier_Errors(t *testing.T) {
	t.Run("empty content", func(t *testing.T) {
		c := newTestClassifier(t, &fakeCompletions{content: "  "})
		_, err := c.Classify(context.Background(), "hi")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("not json", func(t *testing.T) {
		c := newTestClassifier(t, &fakeCompletions{content: "no idea"})
		_, err := c.Classify(context.Background(), "hi")
		assert.Error(t, err)
	})

	t.Run("upstream failure", func(t *testing.T) {
		c := newTestClassifier(t, &fakeCompletions{status: http.StatusInternalServerError})
		_, err := c.Classify(context.Background(), "hi")
		assert.Error(t, err)
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"text ```json\n{\"a\":{\"b\":2}}\n``` more", `{"a":{"b":2}}`},
		{`{"s":"brace } inside"}`, `{"s":"brace } inside"}`},
		{`{"s":"quote \" here"}`, `{"s":"quote \" here"}`},
		{`{"open":`, ""},
		{"none", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSON(tt.in), tt.in)
	}
}

func TestLoadPrompts(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	assert.NotEmpty(t, p.Classification.System)
	assert.Equal(t, "{{.Utterance}}", p.Classification.UserTemplate)

	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classification:\n  system: \"Be brief\"\n  temperature: 0.5\n"), 0o644))

	p, err = LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "Be brief", p.Classification.System)
	assert.InDelta(t, 0.5, p.Classification.Temperature, 0.0001)
	assert.Equal(t, "{{.Utterance}}", p.Classification.UserTemplate)

	require.NoError(t, os.WriteFile(path, []byte("classification:\n  temperature: 0.5\n"), 0o644))
	_, err = LoadPrompts(path)
	assert.Error(t, err)

	_, err = LoadPrompts(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
