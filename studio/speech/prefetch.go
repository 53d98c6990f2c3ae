package speech

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Prefetch synthesizes every distinct utterance with at most limit calls in flight, so
// later playback is served from the cache. The first failure cancels the rest.
func Prefetch(ctx context.Context, s Synthesizer, items []Utterance, limit int) error {
	if limit <= 0 {
		limit = 1
	}
	seen := make(map[Utterance]struct{}, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, u := range items {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		g.Go(func() error {
			if _, err := s.Synthesize(gctx, u.Voice, u.Text); err != nil {
				return fmt.Errorf("prefetch %s: %w", u.Voice, err)
			}
			return nil
		})
	}
	return g.Wait()
}
