package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/gamelib/internal/storage"
)

func newLaunchCmd(opts *rootOptions) *cobra.Command {
	var store bool
	cmd := &cobra.Command{
		Use:   "launch <game-id>",
		Short: "Start a game through its platform launcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			game, err := app.manager.Game(args[0])
			if err != nil {
				return fmt.Errorf("game %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if store {
				if err := app.launcher.OpenStore(game); err != nil {
					return err
				}
				fmt.Fprintf(out, "Opened store page for %s\n", game.Name)
				return nil
			}
			if err := app.launcher.Launch(game); err != nil {
				return err
			}
			fmt.Fprintf(out, "Launching %s\n", game.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "Open the store page instead")
	return cmd
}

type installFlags struct {
	installed    bool
	downloading  bool
	progress     float64
	size         int64
	rating       float64
	achievements int
}

// stateFlags are the flags that record install state instead of asking the
// platform launcher to install.
var stateFlags = []string{"installed", "downloading", "progress", "size", "rating", "achievements"}

func newInstallCmd(opts *rootOptions) *cobra.Command {
	fl := &installFlags{}
	cmd := &cobra.Command{
		Use:   "install <game-id>",
		Short: "Install a game or record its local install state",
		Long: `Without flags, install asks the platform launcher to install the game.
With any state flag it records the local install state instead, keeping the
fields that are not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			id := args[0]
			game, err := app.manager.Game(id)
			if err != nil {
				return fmt.Errorf("game %s: %w", id, err)
			}

			out := cmd.OutOrStdout()
			changed := false
			for _, name := range stateFlags {
				changed = changed || cmd.Flags().Changed(name)
			}
			if !changed {
				if err := app.launcher.Install(game); err != nil {
					return err
				}
				fmt.Fprintf(out, "Installing %s\n", game.Name)
				return nil
			}

			state, err := app.store.InstallState(id)
			if err != nil {
				return err
			}
			if state == nil {
				state = &storage.InstallState{}
			}
			fl.apply(cmd, state)
			if err := state.Validate(); err != nil {
				return err
			}
			state.UpdatedAt = time.Now()
			if err := app.store.SetInstallState(id, *state); err != nil {
				return fmt.Errorf("saving install state: %w", err)
			}
			fmt.Fprintf(out, "Updated %s: %s\n", game.Name, describeState(*state))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&fl.installed, "installed", false, "Mark as installed")
	flags.BoolVar(&fl.downloading, "downloading", false, "Mark as downloading")
	flags.Float64Var(&fl.progress, "progress", 0, "Download progress in percent")
	flags.Int64Var(&fl.size, "size", 0, "Install size in MB")
	flags.Float64Var(&fl.rating, "rating", 0, "Your rating from 0 to 10")
	flags.IntVar(&fl.achievements, "achievements", 0, "Unlocked achievements")
	return cmd
}

func (fl *installFlags) apply(cmd *cobra.Command, st *storage.InstallState) {
	flags := cmd.Flags()
	if flags.Changed("installed") {
		st.Installed = fl.installed
		if fl.installed {
			st.Downloading = false
			st.DownloadProgress = nil
		}
	}
	if flags.Changed("downloading") {
		st.Downloading = fl.downloading
		if fl.downloading {
			st.Installed = false
		} else {
			st.DownloadProgress = nil
		}
	}
	if flags.Changed("progress") {
		p := fl.progress
		st.DownloadProgress = &p
	}
	if flags.Changed("size") {
		s := fl.size
		st.FileSize = &s
	}
	if flags.Changed("rating") {
		r := fl.rating
		st.UserRating = &r
	}
	if flags.Changed("achievements") {
		st.AchievementsUnlocked = fl.achievements
	}
}

func describeState(st storage.InstallState) string {
	switch {
	case st.Installed:
		return "installed"
	case st.Downloading && st.DownloadProgress != nil:
		return fmt.Sprintf("downloading %.0f%%", *st.DownloadProgress)
	case st.Downloading:
		return "downloading"
	}
	return "not installed"
}
