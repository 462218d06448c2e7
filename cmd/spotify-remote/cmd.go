package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, loginCommand, logoutCommand, refreshCommand, statusCommand,
		watchCommand, searchCommand, playlistsCommand, playerCommand, likeCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// serveCommand runs the proxy server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the OAuth proxy server",
		Action: r.Serve,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Log in through the proxy and store the session",
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: r.Logout,
	}
}

func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Exchange the stored refresh token for a new access token",
		Action: r.Refresh,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the logged-in user and what is playing",
		Action: r.Status,
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Follow playback until interrupted",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Poll interval (defaults to the configured value)",
			},
		},
		Action: r.Watch,
	}
}

// searchCommand runs a one-shot search or reads queries from stdin
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog; without a query, read queries line by line",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Results per section (max 50)",
				Value: 10,
			},
		},
		Action: r.Search,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "List your playlists",
		Action: r.Playlists,
	}
}

// playerCommand groups playback controls
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"p"},
		Usage:   "Playback controls",
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "Play a track by id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track-id"},
				},
				Action: r.Play,
			},
			{
				Name:   "toggle",
				Usage:  "Pause or resume",
				Action: r.Toggle,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Action: r.Next,
			},
			{
				Name:    "previous",
				Aliases: []string{"prev"},
				Usage:   "Skip to the previous track",
				Action:  r.Previous,
			},
			{
				Name:  "seek",
				Usage: "Seek to a position, e.g. 90s or 1m30s",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "position"},
				},
				Action: r.Seek,
			},
			{
				Name:  "volume",
				Usage: "Set the device volume (0-100)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "percent"},
				},
				Action: r.Volume,
			},
		},
	}
}

func likeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "like",
		Usage:  "Toggle the liked flag of the current track",
		Action: r.Like,
	}
}
