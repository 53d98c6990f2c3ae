package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"github.com/theimaginaryfoundation/dialog-studio/studio/speech"
)

func newGenerateCmd(a *app) *cobra.Command {
	var flags settingsFlags
	var plot string
	var prefetch bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new dialog and append it to the tree",
		Long:  "Generate a new dialog. Settings given as flags become the new defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			if _, err := flags.apply(cmd, &l.Settings); err != nil {
				return err
			}
			b, err := a.newBackend(a.cfg, a.log)
			if err != nil {
				return err
			}
			g, err := a.generator(l, b)
			if err != nil {
				return err
			}

			progress := func(stage string, count int) {
				if count == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s...\n", stage)
					return
				}
				a.log.Debug("progress", "stage", stage, "count", count)
			}
			d, err := g.Generate(cmd.Context(), studio.GenerateRequest{
				Settings:    l.Settings,
				PlotDetails: plot,
				Candidates:  l.WordCardCandidates(),
			}, progress)
			if err != nil {
				return err
			}
			if _, err := l.AddDialog(d); err != nil {
				return err
			}
			if err := a.save(l); err != nil {
				return err
			}
			renderSession(a.out, l, true)

			if !prefetch {
				return nil
			}
			synth, closeSpeech, err := a.openSpeech()
			if err != nil {
				return err
			}
			defer closeSpeech()
			items := dialogUtterances(l.Language, d)
			if err := speech.Prefetch(cmd.Context(), synth, items, a.cfg.PrefetchConcurrency); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "prefetched %d sentences\n", len(items))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&plot, "plot", "", "plot details for participants_and_spec dialogs")
	cmd.Flags().BoolVar(&prefetch, "prefetch-audio", false, "synthesize every sentence into the audio cache")
	return cmd
}
