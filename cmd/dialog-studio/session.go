package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"github.com/theimaginaryfoundation/dialog-studio/studio/fileutils"
)

func newInitCmd(a *app) *cobra.Command {
	var second string
	var force bool
	cmd := &cobra.Command{
		Use:   "init <language>",
		Short: "Create a new learning document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && fileutils.FileExists(a.cfg.LearningPath) {
				return fmt.Errorf("%s already exists (use --force)", a.cfg.LearningPath)
			}
			if _, err := studio.LoadLocale(a.cfg.DataDir, args[0]); err != nil {
				return err
			}
			l := studio.NewLearning(args[0], second)
			if _, err := studio.LoadLocale(a.cfg.DataDir, l.SecondLanguage); err != nil {
				return err
			}
			if err := a.save(l); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "created %s (%s -> %s)\n", a.cfg.LearningPath, l.Language, l.SecondLanguage)
			return nil
		},
	}
	cmd.Flags().StringVar(&second, "second", studio.DefaultSecondLanguage, "translation language")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing document")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current path through the dialog tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			renderSession(a.out, l, all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every sentence of the current dialog")
	return cmd
}

func parseDirection(s string) (int, error) {
	switch s {
	case "next", "n":
		return 1, nil
	case "prev", "p":
		return -1, nil
	}
	return 0, fmt.Errorf("direction must be next or prev, got %q", s)
}

func newNavigateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "navigate",
		Short: "Move between dialogs or sentences",
	}

	var depth int
	node := &cobra.Command{
		Use:   "node <next|prev>",
		Short: "Move the current child of the node at --depth on the current path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := parseDirection(args[0])
			if err != nil {
				return err
			}
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			if depth < 0 {
				return fmt.Errorf("depth must be >= 0, got %d", depth)
			}
			n := l.Root()
			if depth > 0 {
				path := l.CurrentPath()
				if depth > len(path) {
					return fmt.Errorf("depth %d is below the current path (%d levels)", depth, len(path))
				}
				n = path[depth-1]
			}
			if err := n.Navigate(delta); err != nil {
				if errors.Is(err, studio.ErrNavigationBoundary) {
					return fmt.Errorf("no %s node at depth %d", args[0], depth)
				}
				return err
			}
			if err := a.save(l); err != nil {
				return err
			}
			renderSession(a.out, l, false)
			return nil
		},
	}
	node.Flags().IntVar(&depth, "depth", 0, "0 moves between top-level nodes")

	sentence := &cobra.Command{
		Use:   "sentence <next|prev>",
		Short: "Move within the current dialog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := parseDirection(args[0])
			if err != nil {
				return err
			}
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			d, ok := currentDialog(l)
			if !ok {
				return errors.New("no current dialog")
			}
			if !d.Navigate(delta) {
				return fmt.Errorf("no %s sentence", args[0])
			}
			if err := a.save(l); err != nil {
				return err
			}
			renderSession(a.out, l, false)
			return nil
		},
	}

	cmd.AddCommand(node, sentence)
	return cmd
}

type settingsFlags struct {
	dialogType string
	algorithm  string
	heavy      bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dialogType, "type", "", "dialog type: listen or speak")
	cmd.Flags().StringVar(&f.algorithm, "algorithm", "", "participants_and_spec or word_cards")
	cmd.Flags().BoolVar(&f.heavy, "heavy", false, "use the heavy model")
}

// apply overwrites the settings named on the command line and reports whether any were.
func (f *settingsFlags) apply(cmd *cobra.Command, s *studio.CreateDialogSettings) (bool, error) {
	changed := false
	if cmd.Flags().Changed("type") {
		t, err := studio.ParseDialogType(f.dialogType)
		if err != nil {
			return false, err
		}
		s.DialogType = t
		changed = true
	}
	if cmd.Flags().Changed("algorithm") {
		alg, err := studio.ParseAlgorithm(f.algorithm)
		if err != nil {
			return false, err
		}
		s.Algorithm = alg
		changed = true
	}
	if cmd.Flags().Changed("heavy") {
		s.UseHeavyModel = f.heavy
		changed = true
	}
	return changed, nil
}

func newSettingsCmd(a *app) *cobra.Command {
	var flags settingsFlags
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the default dialog generation settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			changed, err := flags.apply(cmd, &l.Settings)
			if err != nil {
				return err
			}
			if changed {
				if err := a.save(l); err != nil {
					return err
				}
			}
			s := l.Settings
			fmt.Fprintf(a.out, "type=%s algorithm=%s heavy=%t\n", s.DialogType, s.Algorithm, s.UseHeavyModel)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete the current node at --depth with everything below it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadLearning()
			if err != nil {
				return err
			}
			path := l.CurrentPath()
			if depth < 0 || depth >= len(path) {
				return fmt.Errorf("no node at depth %d (current path has %d levels)", depth, len(path))
			}
			parent := path[depth].Parent()
			if _, err := parent.RemoveChild(parent.CurrentIndex()); err != nil {
				return err
			}
			if err := a.save(l); err != nil {
				return err
			}
			renderSession(a.out, l, false)
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "0 removes the current top-level node")
	return cmd
}
