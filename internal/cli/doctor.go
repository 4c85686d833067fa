package cli

import (
	"os/exec"

	"github.com/spf13/cobra"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := deps.Printer
			ok := true

			lookPath := deps.LookPath
			if lookPath == nil {
				lookPath = exec.LookPath
			}

			player := deps.Config.Audio.PlayerCommand
			if path, err := lookPath(player); err != nil {
				p.Check("Audio player", false, player+" not found. Install ffmpeg or set CALMSPACE_PLAYER_COMMAND")
				ok = false
			} else {
				p.Check("Audio player", true, path)
			}

			if asset, err := deps.Assets.Resolve(cmd.Context()); err != nil {
				p.Check("Ambient loop", false, err.Error())
				ok = false
			} else {
				p.Check("Ambient loop", true, asset.Name+" ("+asset.Path+")")
			}

			if deps.Config.File != "" {
				p.Check("Config file", true, deps.Config.File)
			} else {
				p.Check("Config file", true, "none, using defaults")
			}

			if ok {
				p.Success("All prerequisites met. Sleep well!")
			} else {
				p.Warning("Some prerequisites are missing.")
			}
			return nil
		},
	}
}
