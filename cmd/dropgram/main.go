package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/dropgram/cmd/dropgram/internal"
	"github.com/tinyland-inc/dropgram/cmd/dropgram/internal/onboard"
	"github.com/tinyland-inc/dropgram/cmd/dropgram/internal/run"
	"github.com/tinyland-inc/dropgram/cmd/dropgram/internal/version"
)

func NewDropgramCommand() *cobra.Command {
	short := fmt.Sprintf("dropgram - file-drop-to-Telegram relay v%s", internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "dropgram",
		Short:   short,
		Example: "dropgram run",
	}

	cmd.AddCommand(
		run.NewRunCommand(),
		onboard.NewOnboardCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewDropgramCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
