package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"speaksure/config"
	"speaksure/log"
)

var version = "dev"

var (
	configPath  string
	logPathFlag string
	apiFlag     string

	appConfig *config.Config
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speaksure",
		Short: "SpeakSure - practice interviews from the terminal",
		Long: `SpeakSure runs a practice interview in the terminal.

Each question is answered out loud. The recording is sent to the analysis
service, which scores how confident the answer sounded and returns the
transcript, word count, speech rate and language findings.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultPath+" when present)")
	pf.StringVar(&logPathFlag, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	pf.StringVar(&apiFlag, "api", "", "analysis service base URL (overrides config and SPEAKSURE_API_URL)")

	cmd.AddCommand(newInterviewCommand())
	cmd.AddCommand(newResultsCommand())
	cmd.AddCommand(newDevicesCommand())
	cmd.AddCommand(newDoctorCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// setup resolves the log directory, installs the crash log and loads the
// configuration before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	logPath, err := log.ResolveDir(logPathFlag)
	if err != nil {
		return fmt.Errorf("resolving log directory: %w", err)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	} else {
		initCrashLog()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiFlag != "" {
		cfg.API.BaseURL = apiFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	appConfig = cfg
	return nil
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config or log directory needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "speaksure %s\n", version)
		},
	}
}

func execute() error {
	return newRootCommand().Execute()
}
