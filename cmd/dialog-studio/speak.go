package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newSpeakCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "speak",
		Short: "Play the current sentence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			d, ok := currentDialog(l)
			if !ok {
				return errors.New("no current dialog")
			}
			synth, closeSpeech, err := a.openSpeech()
			if err != nil {
				return err
			}
			defer closeSpeech()
			return a.speak(cmd.Context(), synth, l.Language, d)
		},
	}
}
