package onboard

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/dropgram/cmd/dropgram/internal"
	"github.com/tinyland-inc/dropgram/pkg/config"
)

func NewOnboardCommand() *cobra.Command {
	var configPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return onboardCmd(configPath, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", internal.GetConfigPath(), "Path to config file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}

func onboardCmd(configPath string, force bool) error {
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", configPath)
		}
	}

	if err := config.SaveConfig(configPath, config.DefaultConfig()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote default config to %s\n", configPath)
	fmt.Println("Set bot_api_key and target_chat_id before running the relay.")
	return nil
}
