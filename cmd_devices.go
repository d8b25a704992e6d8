package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"speaksure/audio"
	"speaksure/config"
)

func newDevicesCommand() *cobra.Command {
	var pick bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List microphones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actx, err := audio.NewContext()
			if err != nil {
				return fmt.Errorf("initializing audio: %w", err)
			}
			defer actx.Close()

			if pick {
				dev, err := audio.SelectDevice(actx, appConfig.Audio.Device)
				if err != nil {
					return err
				}
				if dev == nil {
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected: %s\n", dev.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "Use it with --device %q, SPEAKSURE_DEVICE or audio.device in %s.\n", dev.Name, config.DefaultPath)
				return nil
			}
			return listDevices(cmd.OutOrStdout(), actx, appConfig.Audio.Device)
		},
	}
	cmd.Flags().BoolVar(&pick, "select", false, "pick a device interactively")
	return cmd
}

func listDevices(w io.Writer, actx audio.Context, configured string) error {
	devices, err := actx.Devices()
	if err != nil {
		return fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return audio.ErrDeviceUnavailable
	}
	for _, d := range devices {
		mark := "  "
		if d.Name == configured {
			mark = "▶ "
		}
		line := mark + d.Name
		if audio.IsBluetooth(d.Name) {
			line += warnStyle.Render("  [⚠ Lower audio quality]")
		}
		fmt.Fprintln(w, line)
	}
	if configured != "" {
		if found, _ := audio.FindDevice(actx, configured); found == nil {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("configured device %q not found, the system default will be used", configured)))
		}
	}
	return nil
}
