package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"github.com/theimaginaryfoundation/dialog-studio/studio/saver"
	"github.com/theimaginaryfoundation/dialog-studio/studio/speech"
)

const studyHelp = `keys:
  <enter>, r  reveal more of the sentence
  n, p        next / previous sentence
  ], [        next / previous dialog
  s           speak the sentence
  h           help
  q           save and quit`

func newStudyCmd(a *app) *cobra.Command {
	var noAudio bool
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Step through dialogs interactively",
		Long:  "Step through dialogs interactively. Changes are saved after a short delay and on exit.\n\n" + studyHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var synth speech.Synthesizer
			if !noAudio {
				s, closeSpeech, err := a.openSpeech()
				if err != nil {
					a.log.Warn("audio disabled", "error", err)
					fmt.Fprintln(a.out, "audio disabled:", err)
				} else {
					defer closeSpeech()
					synth = s
				}
			}
			return a.study(ctx, l, synth)
		},
	}
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "do not synthesize or play audio")
	return cmd
}

// studySession is owned by the study loop goroutine; nothing else touches the Learning.
type studySession struct {
	a      *app
	l      *studio.Learning
	synth  speech.Synthesizer
	saves  *saver.Debouncer
	reveal *studio.RevealState
}

func (a *app) study(ctx context.Context, l *studio.Learning, synth speech.Synthesizer) error {
	s := &studySession{a: a, l: l, synth: synth, saves: saver.New(a.cfg.SaveDelay, a.log)}
	defer s.saves.Stop()
	save := func() error { return a.save(l) }

	readCtx, stopReading := context.WithCancel(ctx)
	lines := make(chan string)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		readLines(readCtx, a.in, lines)
	}()
	defer stopLines(a.in, stopReading, readerDone)

	s.refresh()
	s.render()
	for {
		select {
		case <-ctx.Done():
			return s.saves.Flush(save)
		case <-s.saves.Due():
			if err := s.saves.Run(save); err != nil {
				fmt.Fprintln(a.out, "save failed:", err)
			}
		case line, ok := <-lines:
			if !ok || s.handle(ctx, strings.TrimSpace(line)) {
				return s.saves.Flush(save)
			}
		}
	}
}

func readLines(ctx context.Context, r io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case out <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
}

// stopLines ends the reader goroutine and waits for it when the input supports read
// deadlines. A read blocked on any other reader cannot be interrupted and is left to
// end with the process.
func stopLines(r io.Reader, cancel context.CancelFunc, done <-chan struct{}) {
	cancel()
	d, ok := r.(interface{ SetReadDeadline(time.Time) error })
	if !ok || d.SetReadDeadline(time.Now()) != nil {
		return
	}
	<-done
}

// refresh rebuilds the reveal state for whatever dialog is now current.
func (s *studySession) refresh() {
	s.reveal = nil
	if d, ok := currentDialog(s.l); ok {
		s.reveal = studio.NewRevealState(d)
	}
}

func (s *studySession) render() {
	if s.reveal == nil {
		fmt.Fprintln(s.a.out, "no dialog here; run generate first")
		return
	}
	renderReveal(s.a.out, s.reveal)
}

// handle applies one command and reports whether the loop should stop.
func (s *studySession) handle(ctx context.Context, line string) bool {
	out := s.a.out
	switch line {
	case "q", "quit":
		return true
	case "h", "?", "help":
		fmt.Fprintln(out, studyHelp)
		return false
	case "]", "[":
		s.moveDialog(ctx, line)
		return false
	}

	if s.reveal == nil {
		s.render()
		return false
	}
	switch line {
	case "", "r":
		if !s.reveal.Reveal() {
			fmt.Fprintln(out, "fully revealed")
			return false
		}
	case "n", "p":
		delta := 1
		if line == "p" {
			delta = -1
		}
		if !s.reveal.Navigate(delta) {
			fmt.Fprintln(out, "no more sentences that way")
			return false
		}
		s.saves.Trigger()
		s.autoPlay(ctx)
	case "s":
		s.play(ctx)
	default:
		fmt.Fprintf(out, "unknown command %q, h for help\n", line)
		return false
	}
	s.render()
	return false
}

func (s *studySession) moveDialog(ctx context.Context, key string) {
	root := s.l.Root()
	cur := root.Current()
	if cur == nil {
		s.render()
		return
	}
	delta := 1
	atEdge := cur.IsLastInParent()
	if key == "[" {
		delta = -1
		atEdge = cur.IsFirstInParent()
	}
	if atEdge {
		fmt.Fprintln(s.a.out, "no more dialogs that way")
		return
	}
	if err := root.Navigate(delta); err != nil {
		fmt.Fprintln(s.a.out, err)
		return
	}
	s.saves.Trigger()
	s.refresh()
	s.autoPlay(ctx)
	s.render()
}

// autoPlay speaks the new sentence of a LISTEN dialog.
func (s *studySession) autoPlay(ctx context.Context) {
	if s.reveal != nil && s.reveal.Dialog().Type == studio.DialogListen {
		s.play(ctx)
	}
}

func (s *studySession) play(ctx context.Context) {
	if s.synth == nil {
		return
	}
	if err := s.a.speak(ctx, s.synth, s.l.Language, s.reveal.Dialog()); err != nil {
		s.a.log.Warn("playback failed", "error", err)
		fmt.Fprintln(s.a.out, "playback failed:", err)
	}
}
