package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wpmigrate/internal/config"
	"github.com/blackwell-systems/wpmigrate/internal/logger"
	"github.com/blackwell-systems/wpmigrate/internal/migrate"
	"github.com/blackwell-systems/wpmigrate/internal/util"
)

var (
	cfg    *config.Config
	log    zerolog.Logger
	runner *migrate.Runner

	flagNoColor  bool
	flagConfig   string
	flagLogLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wpmigrate",
		Short: "Migrate a WordPress export into Sanity",
		Long: `wpmigrate moves a WordPress blog into a Sanity dataset.

It parses a WXR export, downloads and normalizes every referenced image,
imports authors, categories and posts as documents, and writes redirect
rules for the new Next.js site.

Every stage writes its artifacts to the data directory, so stages can be
rerun on their own. Rerunning is safe: documents are updated in place and
images already on disk or already uploaded are reused.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ./wpmigrate.yml)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL or info)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)
		log = logger.New(os.Stderr, flagLogLevel, util.IsStderrTTY())

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		runner = migrate.NewRunner(cfg, log)
		return nil
	}

	root.AddCommand(
		newMigrateCmd(),
		newParseCmd(),
		newImagesCmd(),
		newImportCmd(),
		newRedirectsCmd(),
		newCleanupCmd(),
		newStatusCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// fail prints a red failure line. Unlike an error return it does not stop
// the command.
func fail(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.RedString("✗"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}

// requireStore fails unless a token and project are configured.
func requireStore() error {
	if runner.Store != nil {
		return nil
	}
	if !cfg.HasToken() {
		return migrate.ErrNoToken
	}
	return cfg.Validate(true)
}
