package main

import (
	"time"

	"github.com/spf13/cobra"

	"speaksure/analysis"
	"speaksure/audio"
	"speaksure/clipboard"
	"speaksure/doctor"
	"speaksure/log"
)

func newDoctorCommand() *cobra.Command {
	var captureFor time.Duration
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Long: `Check that logging, the microphone, the recording formats, the
analysis service and the clipboard all work. Exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := appConfig
			actx, err := audio.NewContext()
			if err == nil {
				defer actx.Close()
			} else {
				actx = nil
			}
			mgr := audio.NewManager(actx, audio.Constraints{
				Device:     cfg.Audio.Device,
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
			})
			checks := []doctor.Check{
				doctor.LogDir(log.Dir()),
				doctor.Devices(actx),
				doctor.Capture(mgr, captureFor),
				doctor.Formats(cfg.Audio.PreferredTypes),
				doctor.API(analysis.NewClient(cfg.API.BaseURL), cfg.API.BaseURL),
				doctor.Clipboard(clipboard.System{}),
			}
			if code := doctor.Run(cmd.Context(), cmd.OutOrStdout(), checks); code != ExitSuccess {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&captureFor, "capture", time.Second, "how long to listen to the microphone")
	return cmd
}
