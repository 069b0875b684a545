// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/mstream/internal/services"
	"github.com/urfave/cli/v3"
)

func outputFlags(pretty bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: pretty,
		},
	}
}

// exportFlags are shared by listing commands that support file exports.
func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Export format (csv, markdown, text)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the export to this file instead of stdout",
		},
	}
}

// setupCommand handles setup operations for configuration and the settings database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the settings database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// searchCommand searches YouTube through the backend
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search YouTube for audio",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: append(append(outputFlags(true), exportFlags()...), &cli.IntFlag{
			Name:  "max",
			Usage: "Maximum number of results",
			Value: services.DefaultMaxResults,
		}),
		Action: r.Search,
	}
}

// localCommand lists the backend's MP3 files
func localCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "local",
		Usage:  "List local MP3 files served by the backend",
		Flags:  append(outputFlags(true), exportFlags()...),
		Action: r.Local,
	}
}

// playlistsCommand lists playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "List playlists",
		Flags:  append(outputFlags(true), exportFlags()...),
		Action: r.Playlists,
	}
}

// playCommand plays a single source from the command line
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play audio until it ends or is interrupted",
		Commands: []*cli.Command{
			{
				Name:  "local",
				Usage: "Play a local MP3 file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "file",
					},
				},
				Action: r.PlayLocal,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Play a YouTube video's audio",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title to show and broadcast",
					},
					&cli.StringFlag{
						Name:  "channel",
						Usage: "Channel to show and broadcast",
					},
				},
				Action: r.PlayYouTube,
			},
		},
	}
}

// volumeCommand reads or stores the persisted volume
func volumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "volume",
		Usage: "Show or change the stored volume",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the stored volume",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.VolumeGet,
			},
			{
				Name:  "set",
				Usage: "Store a volume (0.5 or 50%)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "value",
					},
				},
				Action: r.VolumeSet,
			},
		},
	}
}

// relayCommand runs the sync relay server
func relayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "relay",
		Usage: "Run the sync relay that rebroadcasts control events between clients",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides relay.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides relay.port)",
			},
		},
		Action: r.Relay,
	}
}

// tuiCommand launches the interactive player
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive terminal player",
		Action: r.TUI,
	}
}
