package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theimaginaryfoundation/dialog-studio/studio/logger"
)

func newRootCmd(a *app) *cobra.Command {
	var configPath, learningPath string

	root := &cobra.Command{
		Use:           "dialog-studio",
		Short:         "Generate and study language-learning dialogs",
		Long:          "Builds a tree of generated dialogs with translations and audio, driven by vocabulary cards.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if learningPath != "" {
				cfg.LearningPath = learningPath
			}
			a.cfg = cfg
			a.backedUp = false
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (or DIALOG_STUDIO_CONFIG)")
	root.PersistentFlags().StringVarP(&learningPath, "file", "f", "", "learning document, overrides learning_path")

	root.AddCommand(
		newInitCmd(a),
		newShowCmd(a),
		newNavigateCmd(a),
		newRemoveCmd(a),
		newGenerateCmd(a),
		newCardsCmd(a),
		newSpeakCmd(a),
		newStudyCmd(a),
		newSettingsCmd(a),
	)
	return root
}
