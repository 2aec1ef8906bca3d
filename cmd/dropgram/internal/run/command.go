package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/dropgram/cmd/dropgram/internal"
	"github.com/tinyland-inc/dropgram/pkg/assemble"
	"github.com/tinyland-inc/dropgram/pkg/config"
	"github.com/tinyland-inc/dropgram/pkg/logger"
	"github.com/tinyland-inc/dropgram/pkg/queue"
	"github.com/tinyland-inc/dropgram/pkg/relay"
	"github.com/tinyland-inc/dropgram/pkg/telegram"
)

func NewRunCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the relay",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCmd(configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", internal.GetConfigPath(), "Path to config file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func runCmd(configPath string, debug bool) error {
	logger.Setup(debug)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	transport, err := telegram.New(cfg)
	if err != nil {
		return err
	}

	q := queue.New()
	assembler := assemble.New(cfg.TargetChatID, cfg.HandleFiles)
	filler := relay.NewFiller(q, assembler, cfg)
	dispatcher := relay.NewDispatcher(q, transport, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return relay.New(filler, dispatcher, cfg).Run(ctx)
}
