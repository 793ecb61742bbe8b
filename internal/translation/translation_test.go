package translation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nugget-translator/internal/catalog"
	"nugget-translator/internal/rag"
	"nugget-translator/internal/translation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiReply(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
}

func TestGeminiClient_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))

		var req struct {
			SystemInstruction struct {
				Parts []struct{ Text string } `json:"parts"`
			} `json:"systemInstruction"`
			Contents []struct {
				Role  string                  `json:"role"`
				Parts []struct{ Text string } `json:"parts"`
			} `json:"contents"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system", req.SystemInstruction.Parts[0].Text)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "Hello", req.Contents[0].Parts[0].Text)

		geminiReply(w, "  Bonjour \n")
	}))
	defer srv.Close()

	c := translation.NewGeminiClient("k", "gemini-test", translation.WithBaseURL(srv.URL))
	out, err := c.Translate(context.Background(), "system", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
}

func TestGeminiClient_Retry(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				http.Error(w, "busy", http.StatusServiceUnavailable)
				return
			}
			geminiReply(w, "ok")
		}))
		defer srv.Close()

		c := translation.NewGeminiClient("k", "m", translation.WithBaseURL(srv.URL), translation.WithRetry(3, time.Millisecond))
		out, err := c.Translate(context.Background(), "s", "u")
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "bad key", http.StatusForbidden)
		}))
		defer srv.Close()

		c := translation.NewGeminiClient("k", "m", translation.WithBaseURL(srv.URL), translation.WithRetry(3, time.Millisecond))
		_, err := c.Translate(context.Background(), "s", "u")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 403")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := translation.NewGeminiClient("k", "m", translation.WithBaseURL(srv.URL), translation.WithRetry(2, time.Millisecond))
		_, err := c.Translate(context.Background(), "s", "u")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})
}

func TestGeminiClient_TranslateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geminiReply(w, "[1] Bonjour ||| [2] Au revoir")
	}))
	defer srv.Close()

	c := translation.NewGeminiClient("k", "m", translation.WithBaseURL(srv.URL))

	out, err := c.TranslateBatch(context.Background(), "s", "u", "|||", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bonjour", "Au revoir"}, out)

	_, err = c.TranslateBatch(context.Background(), "s", "u", "|||", 3)
	assert.Error(t, err)

	out, err = c.TranslateBatch(context.Background(), "s", "u", "|||", 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSplitBatch(t *testing.T) {
	out, err := translation.SplitBatch("[1] Un\n|||\n[2]Deux|||Trois", "|||", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Un", "Deux", "Trois"}, out)
}

func TestPromptBuilder(t *testing.T) {
	pb := translation.NewPromptBuilder("fr", "|||")

	sys := pb.SystemPrompt()
	assert.Contains(t, sys, "French (fr)")
	assert.Contains(t, sys, "{{var_1}}")
	assert.Equal(t, "|||", pb.Separator())

	user := pb.BuildUserPrompt(translation.Item{Text: "Hi {{var_1}}", Comment: "greeting", Context: "CTX\n"})
	assert.Equal(t, "CTX\nTranslator note: greeting\n\nText to translate:\nHi {{var_1}}", user)

	batch := pb.BuildBatchUserPrompt([]translation.Item{{Text: "One"}, {Text: "Two", Comment: "n"}})
	assert.Contains(t, batch, "separated by |||")
	assert.Contains(t, batch, "[1] One\n")
	assert.Contains(t, batch, "[2] Two  (note: n)\n")

	assert.Contains(t, translation.NewPromptBuilder("not a tag", "|||").SystemPrompt(), "(not a tag)")
}

// fakeClient translates "X" to "tr(X)" and records what it was asked.
type fakeClient struct {
	mu         sync.Mutex
	batchErr   error
	failSingle string
	dropVars   bool
	batches    int
	singles    int
}

func (f *fakeClient) translate(text string) string {
	if f.dropVars {
		return "tr"
	}
	return "tr(" + text + ")"
}

func (f *fakeClient) Translate(_ context.Context, _, user string) (string, error) {
	f.mu.Lock()
	f.singles++
	f.mu.Unlock()

	text := user[strings.LastIndex(user, "\n")+1:]
	if text == f.failSingle {
		return "", errors.New("refused")
	}
	return f.translate(text), nil
}

func (f *fakeClient) TranslateBatch(_ context.Context, _, user, separator string, count int) ([]string, error) {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()

	if f.batchErr != nil {
		return nil, f.batchErr
	}
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(user), "\n") {
		if !strings.HasPrefix(line, "[") {
			continue
		}
		text := line[strings.Index(line, "] ")+2:]
		if i := strings.Index(text, "  (note:"); i >= 0 {
			text = text[:i]
		}
		out = append(out, f.translate(text))
	}
	return out[:count], nil
}

type fakeRetriever struct{}

func (fakeRetriever) Retrieve(_ context.Context, lang, msgID string, _ int) *rag.RetrievalResult {
	return &rag.RetrievalResult{Matches: []rag.SearchResult{{MsgID: "ctx", MsgStr: lang}}}
}

func TestTranslator(t *testing.T) {
	entries := []catalog.Entry{
		{MsgID: "Hello %0", Comment: "greeting", References: []string{"a.cs:1"}},
		{MsgID: "Bye"},
		{MsgID: "Save"},
	}

	t.Run("batches and restores placeholders", func(t *testing.T) {
		client := &fakeClient{}
		tr := translation.NewTranslator(client, fakeRetriever{}, 2, 2)

		out := tr.TranslateEntries(context.Background(), "fr", "|||", entries)
		require.Len(t, out, 3)

		assert.Equal(t, "tr(Hello %0)", out[0].MsgStr)
		assert.Equal(t, "greeting", out[0].Comment)
		assert.Equal(t, []string{"a.cs:1"}, out[0].References)
		assert.False(t, out[0].Fuzzy)
		assert.Equal(t, "tr(Bye)", out[1].MsgStr)
		assert.Equal(t, "tr(Save)", out[2].MsgStr)

		assert.Equal(t, 1, client.batches)
		assert.Equal(t, 1, client.singles, "a batch of one uses a single request")
	})

	t.Run("falls back to single requests", func(t *testing.T) {
		client := &fakeClient{batchErr: errors.New("bad split"), failSingle: "Bye"}
		tr := translation.NewTranslator(client, nil, 3, 1)

		out := tr.TranslateEntries(context.Background(), "fr", "|||", entries)
		require.Len(t, out, 2)
		assert.Equal(t, "Hello %0", out[0].MsgID)
		assert.Equal(t, "Save", out[1].MsgID)
		assert.Equal(t, 3, client.singles)
	})

	t.Run("lost placeholders mark the entry fuzzy", func(t *testing.T) {
		client := &fakeClient{dropVars: true}
		tr := translation.NewTranslator(client, nil, 1, 1)

		out := tr.TranslateEntries(context.Background(), "fr", "|||", entries[:2])
		require.Len(t, out, 2)
		assert.True(t, out[0].Fuzzy)
		assert.False(t, out[1].Fuzzy)
	})
}
