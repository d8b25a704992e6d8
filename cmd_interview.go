package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"speaksure/analysis"
	"speaksure/audio"
	"speaksure/beep"
	"speaksure/config"
	"speaksure/interview"
	"speaksure/log"
	"speaksure/recorder"
	"speaksure/shutdown"
	"speaksure/visualizer"
)

type interviewOptions struct {
	name   string
	device string
	video  bool
	noBeep bool
	replay string
}

func newInterviewCommand() *cobra.Command {
	var opts interviewOptions
	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run a practice interview",
		Long: `Run a practice interview in the terminal.

You enter your name, grant microphone access and then answer each question
out loud. Every answer is analyzed as soon as it is submitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *appConfig
			if opts.device != "" {
				cfg.Audio.Device = opts.device
			}
			if cmd.Flags().Changed("video") {
				cfg.Audio.Video = opts.video
			}
			return runInterview(cmd.Context(), &cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "prefill the candidate name")
	cmd.Flags().StringVar(&opts.device, "device", "", "use the named microphone (see `speaksure devices`)")
	cmd.Flags().BoolVar(&opts.video, "video", false, "also open the camera while recording")
	cmd.Flags().BoolVar(&opts.noBeep, "no-beep", false, "disable audio cues")
	cmd.Flags().StringVar(&opts.replay, "replay", "", "feed a 16 kHz mono WAV instead of the microphone")
	_ = cmd.Flags().MarkHidden("replay")

	return cmd
}

func runInterview(parent context.Context, cfg *config.Config, opts interviewOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := shutdown.Context(parent)
	defer stop()

	if opts.noBeep {
		beep.Disable()
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	actx, err := openAudio(opts.replay)
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer actx.Close()

	mgr := audio.NewManager(actx, audio.Constraints{
		Device:     cfg.Audio.Device,
		Video:      cfg.Audio.Video,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	})

	frames := &frameSlot{}
	machine := interview.New(interview.Options{
		Questions:  cfg.Questions,
		Devices:    mgr,
		Recorder:   recorder.New(cfg.Audio.PreferredTypes...),
		Visualizer: visualizer.New(cfg.Visualize.FPS, frames.Store),
		Submitter:  analysis.NewClient(cfg.API.BaseURL),
	})
	defer machine.Close()

	log.Info(fmt.Sprintf("interview_start: api=%s format=%s device=%q",
		cfg.API.BaseURL, recorder.SelectType(cfg.Audio.PreferredTypes), cfg.Audio.Device))

	p := tea.NewProgram(
		newInterviewModel(ctx, machine, frames, opts.name),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err = p.Run()
	if err != nil && ctx.Err() == nil {
		return err
	}

	s := machine.Snapshot()
	if s.InterviewID != "" {
		fmt.Printf("Interview %s: answered %d of %d questions.\n", s.InterviewID, s.Answered(), s.Total())
		if s.Answered() > 0 {
			fmt.Printf("See the results with: speaksure results --id %s\n", s.InterviewID)
		}
	}
	return nil
}

// openAudio returns the platform context, or a realtime WAV replay when path
// is set.
func openAudio(path string) (audio.Context, error) {
	if path == "" {
		return audio.NewContext()
	}
	fc, err := audio.NewFakeContextFromWAV(path, true)
	if err != nil {
		return nil, fmt.Errorf("loading replay: %w", err)
	}
	return fc, nil
}
