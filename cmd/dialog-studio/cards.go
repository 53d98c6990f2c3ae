package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theimaginaryfoundation/dialog-studio/studio"
)

func newCardsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Manage vocabulary cards",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List focused and main cards in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			renderCards(a.out, "focused", l.Focused)
			renderCards(a.out, "main", l.Main)
			return nil
		},
	}

	var wordComment, translationComment string
	add := &cobra.Command{
		Use:   "add <word> <translation>",
		Short: "Add a card to the main pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			c, err := studio.NewWordCard(args[0], wordComment, args[1], translationComment)
			if err != nil {
				return err
			}
			if err := l.AddWordCard(c); err != nil {
				return err
			}
			if err := a.save(l); err != nil {
				return err
			}
			fmt.Fprintln(a.out, c.ID())
			return nil
		},
	}
	add.Flags().StringVar(&wordComment, "word-comment", "", "note on the word")
	add.Flags().StringVar(&translationComment, "translation-comment", "", "note on the translation")

	cmd.AddCommand(list, add,
		cardMutation(a, "focus", "Move a card to the focused pool", func(l *studio.Learning, id string) bool {
			return l.FocusWordCard(id)
		}),
		cardMutation(a, "unfocus", "Move a card back to the front of the main pool", func(l *studio.Learning, id string) bool {
			return l.UnfocusWordCard(id)
		}),
		cardMutation(a, "remove", "Delete a card", func(l *studio.Learning, id string) bool {
			_, ok := l.RemoveWordCard(id)
			return ok
		}),
	)
	return cmd
}

func cardMutation(a *app, use, short string, mutate func(l *studio.Learning, id string) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			if !mutate(l, args[0]) {
				return fmt.Errorf("%s: no such card %s", use, args[0])
			}
			return a.save(l)
		},
	}
}
