// Package speech wraps text-to-speech backends with a persistent audio cache.
package speech

import (
	"context"
	"errors"
	"fmt"

	"github.com/theimaginaryfoundation/dialog-studio/studio/logger"
)

// Synthesizer turns text into encoded audio spoken by voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, voice, text string) ([]byte, error)
}

// Utterance is one (voice, text) pair to synthesize.
type Utterance struct {
	Voice string
	Text  string
}

// CachedSynthesizer serves audio from the cache and only calls the backend on a miss.
type CachedSynthesizer struct {
	next  Synthesizer
	cache *Cache
	log   *logger.Logger
}

func NewCachedSynthesizer(next Synthesizer, cache *Cache, log *logger.Logger) *CachedSynthesizer {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedSynthesizer{next: next, cache: cache, log: log}
}

func (s *CachedSynthesizer) Synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	if s.next == nil || s.cache == nil {
		return nil, errors.New("CachedSynthesizer: backend and cache are required")
	}
	audio, ok, err := s.cache.Get(voice, text)
	if err != nil {
		return nil, fmt.Errorf("CachedSynthesizer: cache get: %w", err)
	}
	if ok {
		s.log.Debug("audio cache hit", "voice", voice)
		return audio, nil
	}

	s.log.Info("synthesizing speech", "voice", voice, "chars", len([]rune(text)))
	audio, err = s.next.Synthesize(ctx, voice, text)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(voice, text, audio); err != nil {
		return nil, fmt.Errorf("CachedSynthesizer: cache put: %w", err)
	}
	return audio, nil
}
