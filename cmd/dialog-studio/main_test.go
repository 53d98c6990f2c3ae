package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"github.com/theimaginaryfoundation/dialog-studio/studio/logger"
	"github.com/theimaginaryfoundation/dialog-studio/studio/provider"
	"github.com/theimaginaryfoundation/dialog-studio/studio/translit"
)

type fakeBackend struct {
	mu     sync.Mutex
	synths []string
}

func (f *fakeBackend) StreamCompletion(_ context.Context, _ []studio.Message, _ float64, _ bool, onProgress func(int)) (string, error) {
	onProgress(1)
	return "# Context\nAt the corner shop.\n# Dialog\nA: Dobar dan.\nB: Zdravo.", nil
}

func (f *fakeBackend) AlignSentences(_ context.Context, req studio.AlignRequest) ([]studio.Sentence, error) {
	lines := []string{"Dobar dan.", "Zdravo, šta želite?", "Hleb, molim vas."}
	out := make([]studio.Sentence, 0, len(lines))
	for i, text := range lines {
		out = append(out, studio.Sentence{Speaker: req.Speakers[i%len(req.Speakers)], Text: text, Translation: "tr " + text})
	}
	return out, nil
}

func (f *fakeBackend) Synthesize(_ context.Context, voice, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synths = append(f.synths, voice+"|"+text)
	return []byte("mp3:" + text), nil
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.synths...)
}

type harness struct {
	app     *app
	out     *bytes.Buffer
	backend *fakeBackend
	config  string
	doc     string

	mu     sync.Mutex
	played []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	dataDir, err := filepath.Abs(filepath.Join("..", "..", "data"))
	require.NoError(t, err)

	h := &harness{
		out:     &bytes.Buffer{},
		backend: &fakeBackend{},
		config:  filepath.Join(dir, "config.yaml"),
		doc:     filepath.Join(dir, "learning.json"),
	}
	yaml := fmt.Sprintf("learning_path: %s\ndata_dir: %s\naudio_cache_path: %s\nsave_delay: 1h\nlog_mode: prod\n",
		h.doc, dataDir, filepath.Join(dir, "audio.db"))
	require.NoError(t, os.WriteFile(h.config, []byte(yaml), 0o644))

	h.app = newApp(strings.NewReader(""), h.out)
	h.app.rng = rand.New(rand.NewPCG(1, 2))
	h.app.newBackend = func(Config, *logger.Logger) (backend, error) { return h.backend, nil }
	h.app.play = func(_ context.Context, path string) error {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		h.mu.Lock()
		h.played = append(h.played, string(b))
		h.mu.Unlock()
		return nil
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()
	root := newRootCmd(h.app)
	root.SetArgs(append([]string{"--config", h.config}, args...))
	root.SetOut(h.out)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return h.out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, "args %v", args)
	return out
}

func (h *harness) load(t *testing.T) *studio.Learning {
	t.Helper()
	l, err := studio.LoadLearning(h.doc)
	require.NoError(t, err)
	return l
}

func (h *harness) playedAudio() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.played...)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, defaultConfig().Validate())

	cases := map[string]func(*Config){
		"learning path":  func(c *Config) { c.LearningPath = "" },
		"models":         func(c *Config) { c.HeavyModel = "" },
		"save delay":     func(c *Config) { c.SaveDelay = 0 },
		"prefetch":       func(c *Config) { c.PrefetchConcurrency = 0 },
		"log mode":       func(c *Config) { c.LogMode = "verbose" },
		"completion api": func(c *Config) { c.CompletionAPI = "claude" },
		"gemini models": func(c *Config) {
			c.CompletionAPI = apiGemini
			c.GeminiHeavyModel = ""
		},
	}
	for name, mutate := range cases {
		cfg := defaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("basic_model: from-yaml\nheavy_model: heavy-yaml\nsave_delay: 3s\n"), 0o644))
	t.Setenv("DIALOG_STUDIO_HEAVY_MODEL", "heavy-env")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.BasicModel)
	assert.Equal(t, "heavy-env", cfg.HeavyModel)
	assert.Equal(t, 3*time.Second, cfg.SaveDelay)
	assert.Equal(t, defaultConfig().SpeechModel, cfg.SpeechModel)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	t.Setenv("DIALOG_STUDIO_CONFIG", "")
	t.Setenv("DIALOG_STUDIO_LEARNING", "/tmp/x.json")
	t.Setenv("DIALOG_STUDIO_LOG_MODE", "dev")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.json", cfg.LearningPath)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, defaultConfig().DataDir, cfg.DataDir)
}

func TestInitGenerateShow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	out := h.mustRun(t, "init", "sr")
	assert.Contains(t, out, "(sr -> en)")
	_, err := h.run(t, "init", "sr")
	assert.Error(t, err, "existing document")
	_, err = h.run(t, "init", "xx", "--force")
	assert.Error(t, err, "unknown locale")

	out = h.mustRun(t, "generate", "--type", "listen", "--plot", "buying bread")
	assert.Contains(t, out, "dialog 1/1 (listen)")
	assert.Contains(t, out, "At the corner shop.")
	assert.Contains(t, out, "Hleb, molim vas.")

	l := h.load(t)
	assert.Equal(t, studio.DialogListen, l.Settings.DialogType)
	d, ok := currentDialog(l)
	require.True(t, ok)
	assert.Equal(t, 3, d.Len())
	assert.FileExists(t, h.doc+".bak")

	out = h.mustRun(t, "show")
	assert.Contains(t, out, "> 1/3")
	assert.NotContains(t, out, "2/3")
	out = h.mustRun(t, "show", "--all")
	assert.Contains(t, out, "  3/3")
}

func TestGenerateWithWordCards(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun(t, "init", "sr")

	_, err := h.run(t, "generate", "--algorithm", "word_cards")
	require.ErrorIs(t, err, studio.ErrNoWordCards)
	assert.Equal(t, 0, h.load(t).Root().Len(), "failed generation leaves the document alone")

	var ids []string
	for _, w := range []string{"hleb", "mleko", "sir", "jaja"} {
		ids = append(ids, strings.TrimSpace(h.mustRun(t, "cards", "add", w, w+"-en")))
	}
	h.mustRun(t, "generate", "--algorithm", "word_cards", "--prefetch-audio")

	l := h.load(t)
	assert.Equal(t, studio.AlgorithmWordCards, l.Settings.Algorithm)
	d, ok := currentDialog(l)
	require.True(t, ok)
	require.Len(t, d.SelectedWordCardIDs, studio.WordCardsPerDialog)
	for _, id := range d.SelectedWordCardIDs {
		assert.Contains(t, ids, id)
		assert.GreaterOrEqual(t, l.Main.IndexOf(id), len(l.Main)-studio.WordCardsPerDialog)
	}
	assert.Len(t, h.backend.calls(), 3, "one synthesis per sentence")
}

func TestNavigateCommands(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun(t, "init", "sr")
	h.mustRun(t, "generate")
	h.mustRun(t, "generate")

	out := h.mustRun(t, "navigate", "node", "prev")
	assert.Contains(t, out, "dialog 1/2")
	_, err := h.run(t, "navigate", "node", "prev")
	assert.Error(t, err)
	_, err = h.run(t, "navigate", "node", "next", "--depth", "3")
	assert.Error(t, err)
	_, err = h.run(t, "navigate", "node", "next", "--depth=-1")
	assert.Error(t, err)
	assert.Equal(t, 0, h.load(t).Root().CurrentIndex())

	h.mustRun(t, "navigate", "sentence", "next")
	d, _ := currentDialog(h.load(t))
	assert.Equal(t, 1, d.Position())
	assert.Equal(t, 0, h.load(t).Root().CurrentIndex())

	_, err = h.run(t, "navigate", "sentence", "sideways")
	assert.Error(t, err)
}

func TestRemoveCommand(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun(t, "init", "sr")
	_, err := h.run(t, "remove")
	assert.Error(t, err, "empty tree")

	h.mustRun(t, "generate", "--type", "listen")
	h.mustRun(t, "generate", "--type", "speak")

	out := h.mustRun(t, "remove")
	assert.Contains(t, out, "dialog 1/1 (listen)")
	l := h.load(t)
	assert.Equal(t, 1, l.Root().Len())
	assert.Equal(t, 0, l.Root().CurrentIndex())

	out = h.mustRun(t, "remove")
	assert.Contains(t, out, "no dialogs yet")
	assert.Equal(t, -1, h.load(t).Root().CurrentIndex())
}

func TestCardsCommands(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun(t, "init", "sr", "--second", "en")

	id := strings.TrimSpace(h.mustRun(t, "cards", "add", "kuća", "house", "--word-comment", "f."))
	other := strings.TrimSpace(h.mustRun(t, "cards", "add", "pas", "dog"))

	h.mustRun(t, "cards", "focus", other)
	out := h.mustRun(t, "cards", "list")
	assert.Contains(t, out, "focused (1)")
	assert.Contains(t, out, "kuća (f.) = house")

	h.mustRun(t, "cards", "unfocus", other)
	l := h.load(t)
	assert.Empty(t, l.Focused)
	assert.Equal(t, other, l.Main[0].ID())

	h.mustRun(t, "cards", "remove", id)
	_, err := h.run(t, "cards", "remove", id)
	assert.Error(t, err)
	assert.Len(t, h.load(t).Main, 1)
}

func TestSettingsCommand(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun(t, "init", "sr")

	out := h.mustRun(t, "settings")
	assert.Contains(t, out, "type=listen algorithm=participants_and_spec heavy=false")

	h.mustRun(t, "settings", "--type", "speak", "--heavy")
	s := h.load(t).Settings
	assert.Equal(t, studio.DialogSpeak, s.DialogType)
	assert.True(t, s.UseHeavyModel)

	_, err := h.run(t, "settings", "--algorithm", "nope")
	assert.Error(t, err)
}

func TestAlignerSelection(t *testing.T) {
	t.Parallel()

	a := newApp(strings.NewReader(""), &bytes.Buffer{})
	b := &fakeBackend{}
	assert.Same(t, b, a.aligner(b))

	a.cfg.StreamAlign = true
	assert.Equal(t, studio.StreamAligner{Streamer: b}, a.aligner(b))
}

func TestModelBackendSelection(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	_, err := modelBackend(cfg, logger.Nop())
	assert.Error(t, err, "missing OpenAI key")

	cfg.APIKey = "sk-test"
	b, err := modelBackend(cfg, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &provider.Client{}, b)

	cfg.CompletionAPI = apiGemini
	_, err = modelBackend(cfg, logger.Nop())
	assert.Error(t, err, "missing Gemini key")

	cfg.GeminiAPIKey = "gemini-test"
	b, err = modelBackend(cfg, logger.Nop())
	require.NoError(t, err)
	gb, ok := b.(geminiBackend)
	require.True(t, ok)
	assert.NotNil(t, gb.gemini)
	assert.NotNil(t, gb.Client)
}

func TestSpeakTransliteratesAndCaches(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun(t, "init", "sr")
	h.mustRun(t, "generate")

	h.mustRun(t, "speak")
	h.mustRun(t, "speak")

	want := translit.ForLanguage("sr", "Dobar dan.")
	assert.Equal(t, []string{"mp3:" + want, "mp3:" + want}, h.playedAudio())
	calls := h.backend.calls()
	require.Len(t, calls, 1, "second playback is served from the cache")
	assert.True(t, strings.HasSuffix(calls[0], "|"+want))
}

func TestStudyLoop(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun(t, "init", "sr")
	h.mustRun(t, "generate", "--type", "listen")
	h.mustRun(t, "generate", "--type", "speak")

	h.app.in = strings.NewReader("[\nn\nr\nr\nr\nx\n]\nq\n")
	out := h.mustRun(t, "study")

	assert.Contains(t, out, "[1/3] ")
	assert.Contains(t, out, "[2/3] ")
	assert.Contains(t, out, "fully revealed")
	assert.Contains(t, out, `unknown command "x"`)
	assert.Contains(t, out, "tr Zdravo, šta želite?")

	// Moving onto the LISTEN dialog and to its next sentence both play audio.
	assert.Len(t, h.playedAudio(), 2)

	l := h.load(t)
	assert.Equal(t, 1, l.Root().CurrentIndex())
	first, ok := l.Root().Child(0).Dialog()
	require.True(t, ok)
	assert.Equal(t, 1, first.Position())
}

func TestStudyFlushesOnCancel(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.mustRun(t, "init", "sr")
	h.mustRun(t, "generate", "--type", "listen")

	l := h.load(t)
	h.app.cfg, _ = loadConfig(h.config)
	h.app.log = logger.Nop()

	played := make(chan struct{}, 1)
	h.app.play = func(context.Context, string) error {
		played <- struct{}{}
		return nil
	}
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pw.Close(); _ = pr.Close() })
	h.app.in = pr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.app.study(ctx, l, h.backend) }()

	_, err = pw.Write([]byte("n\n"))
	require.NoError(t, err)
	select {
	case <-played:
	case <-time.After(5 * time.Second):
		t.Fatal("sentence was not played")
	}
	cancel()
	require.NoError(t, <-done)

	d, _ := currentDialog(h.load(t))
	assert.Equal(t, 1, d.Position())

	// The reader was stopped through the pipe's read deadline.
	_, err = pr.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestStopLinesUnblocksPendingRead(t *testing.T) {
	t.Parallel()

	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pw.Close(); _ = pr.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		readLines(ctx, pr, lines)
	}()

	stopped := make(chan struct{})
	go func() {
		stopLines(pr, cancel, done)
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("reader still blocked after stop")
	}
	_, open := <-lines
	assert.False(t, open)
}
