package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"google.golang.org/genai"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	require.NoError(t, err)
	return NewGeminiClient(client, GeminiModels{Basic: "gemini-basic", Heavy: "gemini-heavy"}, nil)
}

func writeChunks(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, c := range chunks {
		fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]}}]}\n\n", c)
	}
}

func TestGeminiStreamCompletion(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		writeChunks(w, "Zdravo, ", "Marko!")
	})

	var progress []int
	out, err := g.StreamCompletion(context.Background(), []studio.Message{
		{Role: studio.RoleSystem, Content: "Write a dialog."},
		{Role: studio.RoleUser, Content: "Two neighbours meet."},
	}, 0.7, true, func(n int) { progress = append(progress, n) })

	require.NoError(t, err)
	assert.Equal(t, "Zdravo, Marko!", out)
	assert.Equal(t, []int{1, 2}, progress)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], "gemini-heavy")
}

func TestGeminiStreamCompletion_RetriesBeforeFirstChunk(t *testing.T) {
	shortWaits(t)
	var calls atomic.Int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		writeChunks(w, "ok")
	})

	out, err := g.StreamCompletion(context.Background(), []studio.Message{{Role: studio.RoleUser, Content: "hi"}}, 0, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeminiStreamCompletion_NilClient(t *testing.T) {
	_, err := NewGeminiClient(nil, GeminiModels{}, nil).StreamCompletion(context.Background(), nil, 0, false, nil)
	require.Error(t, err)
}

func TestToGeminiContents(t *testing.T) {
	system, contents := toGeminiContents([]studio.Message{
		{Role: studio.RoleSystem, Content: "rules"},
		{Role: studio.RoleUser, Content: "question"},
		{Role: studio.RoleAssistant, Content: "answer"},
		{Role: studio.RoleSystem, Content: "more rules"},
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "rules\n\nmore rules", system.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "question", contents[0].Parts[0].Text)
	assert.Equal(t, genai.RoleModel, contents[1].Role)

	system, contents = toGeminiContents([]studio.Message{{Role: studio.RoleUser, Content: "only"}})
	assert.Nil(t, system)
	assert.Len(t, contents, 1)
}
