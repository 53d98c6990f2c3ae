package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"github.com/theimaginaryfoundation/dialog-studio/studio/fileutils"
	"github.com/theimaginaryfoundation/dialog-studio/studio/logger"
	"github.com/theimaginaryfoundation/dialog-studio/studio/provider"
	"github.com/theimaginaryfoundation/dialog-studio/studio/speech"
	"github.com/theimaginaryfoundation/dialog-studio/studio/translit"
	"google.golang.org/genai"
)

const (
	ontologyFile = "dialogs.json"
	playbackFile = "dialog-studio-sentence.mp3"
)

// backend is everything the studio needs from a model provider.
type backend interface {
	studio.CompletionStreamer
	studio.SentenceAligner
	speech.Synthesizer
}

type app struct {
	cfg Config
	log *logger.Logger
	in  io.Reader
	out io.Writer
	rng studio.Rand

	newBackend func(cfg Config, log *logger.Logger) (backend, error)
	play       func(ctx context.Context, path string) error

	backedUp bool
}

func newApp(in io.Reader, out io.Writer) *app {
	a := &app{
		log:        logger.Nop(),
		in:         in,
		out:        out,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newBackend: modelBackend,
	}
	a.play = a.runPlayer
	return a
}

// geminiBackend streams completions from Gemini and leaves alignment and speech on OpenAI.
type geminiBackend struct {
	*provider.Client
	gemini *provider.GeminiClient
}

func (b geminiBackend) StreamCompletion(ctx context.Context, messages []studio.Message, temperature float64, heavy bool, onProgress func(count int)) (string, error) {
	return b.gemini.StreamCompletion(ctx, messages, temperature, heavy, onProgress)
}

func modelBackend(cfg Config, log *logger.Logger) (backend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing OpenAI API key (set OPENAI_API_KEY)")
	}
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	oa := provider.NewClient(&client, provider.Models{
		Basic:  cfg.BasicModel,
		Heavy:  cfg.HeavyModel,
		Speech: cfg.SpeechModel,
	}, log)
	if cfg.CompletionAPI != apiGemini {
		return oa, nil
	}

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("missing Gemini API key (set GEMINI_API_KEY)")
	}
	gc, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return geminiBackend{
		Client: oa,
		gemini: provider.NewGeminiClient(gc, provider.GeminiModels{
			Basic: cfg.GeminiBasicModel,
			Heavy: cfg.GeminiHeavyModel,
		}, log),
	}, nil
}

func (a *app) loadLearning() (*studio.Learning, error) {
	return studio.LoadLearning(a.cfg.LearningPath)
}

// save writes the session. The first save of a process keeps the previous file as <path>.bak.
func (a *app) save(l *studio.Learning) error {
	path := a.cfg.LearningPath
	if !a.backedUp {
		copied, err := fileutils.CopyFileIfExists(path, path+".bak", true)
		if err != nil {
			return fmt.Errorf("save: backup: %w", err)
		}
		if copied {
			a.log.Debug("previous session backed up", "path", path+".bak")
		}
		a.backedUp = true
	}
	if err := l.Save(path); err != nil {
		return err
	}
	a.log.Info("session saved", "path", path)
	return nil
}

// aligner picks schema-constrained alignment unless the config asks for the plain
// streamed JSON list.
func (a *app) aligner(b backend) studio.SentenceAligner {
	if a.cfg.StreamAlign {
		return studio.StreamAligner{Streamer: b}
	}
	return b
}

func (a *app) generator(l *studio.Learning, b backend) (*studio.Generator, error) {
	ontology, err := studio.LoadDialogOntology(filepath.Join(a.cfg.DataDir, ontologyFile))
	if err != nil {
		return nil, err
	}
	locale, err := studio.LoadLocale(a.cfg.DataDir, l.Language)
	if err != nil {
		return nil, err
	}
	second, err := studio.LoadLocale(a.cfg.DataDir, l.SecondLanguage)
	if err != nil {
		return nil, err
	}
	return &studio.Generator{
		Streamer:     b,
		Aligner:      a.aligner(b),
		Ontology:     ontology,
		Locale:       locale,
		SecondLocale: second,
		Rand:         a.rng,
		Log:          a.log,
	}, nil
}

// openSpeech returns a cached synthesizer and the function that closes its cache.
func (a *app) openSpeech() (*speech.CachedSynthesizer, func(), error) {
	b, err := a.newBackend(a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	cache, err := speech.OpenCache(a.cfg.AudioCachePath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := cache.Close(); err != nil {
			a.log.Warn("close audio cache", "error", err)
		}
	}
	return speech.NewCachedSynthesizer(b, cache, a.log), closeFn, nil
}

// currentDialog is the dialog at the end of the current path, if any.
func currentDialog(l *studio.Learning) (*studio.Dialog, bool) {
	path := l.CurrentPath()
	if len(path) == 0 {
		return nil, false
	}
	return path[len(path)-1].Dialog()
}

// utterance resolves the current sentence to the voice that speaks it and the text to send
// to the synthesizer.
func utterance(language string, d *studio.Dialog) (speech.Utterance, error) {
	s := d.Current()
	who := d.Interlocutor(s.Speaker)
	if who == nil {
		return speech.Utterance{}, fmt.Errorf("%w: %q", studio.ErrUnknownSpeaker, s.Speaker)
	}
	return speech.Utterance{Voice: who.Voice, Text: translit.ForLanguage(language, s.Text)}, nil
}

func dialogUtterances(language string, d *studio.Dialog) []speech.Utterance {
	var out []speech.Utterance
	for _, s := range d.Content() {
		who := d.Interlocutor(s.Speaker)
		if who == nil {
			continue
		}
		out = append(out, speech.Utterance{Voice: who.Voice, Text: translit.ForLanguage(language, s.Text)})
	}
	return out
}

// speak synthesizes the current sentence and hands the audio to the player.
func (a *app) speak(ctx context.Context, synth speech.Synthesizer, language string, d *studio.Dialog) error {
	u, err := utterance(language, d)
	if err != nil {
		return err
	}
	audio, err := synth.Synthesize(ctx, u.Voice, u.Text)
	if err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	path := filepath.Join(filepath.Dir(a.cfg.AudioCachePath), playbackFile)
	if err := fileutils.WriteFileAtomicSameDir(path, audio, 0o644); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return a.play(ctx, path)
}

// runPlayer runs the configured player on path, or prints the path when none is set.
func (a *app) runPlayer(ctx context.Context, path string) error {
	fields := strings.Fields(a.cfg.Player)
	if len(fields) == 0 {
		fmt.Fprintf(a.out, "audio: %s\n", path)
		return nil
	}
	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play %s: %w", fields[0], err)
	}
	return nil
}
