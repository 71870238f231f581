// submodule cmd contains command definitions
package main

import (
	"github.com/Varda003/EmoTune/internal/recommend"
	"github.com/urfave/cli/v3"
)

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Email address of the account",
		Required: true,
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func languageFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "language",
		Aliases: []string{"l"},
		Usage:   "Preferred language (english, hindi, spanish, ...); selects the catalog market",
		Value:   "english",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file if missing, initialize the database and run migrations",
		Action: r.Setup,
	}
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database migration operations",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply pending migrations",
				Action: r.MigrateUp,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.MigrateStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrateRollback,
			},
		},
	}
}

func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file operations",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write an example config file",
				Action: r.ConfigInit,
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path", Value: "config.toml"},
				},
			},
			{
				Name:   "show",
				Usage:  "Print the resolved configuration with secrets masked",
				Action: r.ConfigShow,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Recommend tracks for an emotion",
		Flags: append([]cli.Flag{
			languageFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of tracks (1-20)",
				Value:   recommend.DefaultLimit,
			},
		}, jsonFlags()...),
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "emotion",
				UsageText: "One of happy, sad, angry, neutral, surprised, fearful, disgusted",
			},
		},
		Action: r.Recommend,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the music catalog",
		Flags: append([]cli.Flag{
			languageFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
				Value:   10,
			},
		}, jsonFlags()...),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Action: r.Search,
	}
}

func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "liked",
		Usage: "Liked-song library operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List liked songs, newest first",
				Flags: append([]cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:    "emotion",
						Aliases: []string{"e"},
						Usage:   "Only songs liked under this emotion",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of songs (0 for all)",
					},
				}, jsonFlags()...),
				Action: r.LikedList,
			},
			{
				Name:  "export",
				Usage: "Export liked songs to a file",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown or text",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: liked_songs.<ext>)",
					},
				},
				Action: r.LikedExport,
			},
			{
				Name:   "stats",
				Usage:  "Show listening statistics",
				Flags:  append([]cli.Flag{userFlag()}, jsonFlags()...),
				Action: r.LikedStats,
			},
		},
	}
}

func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Account administration",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Register a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Password",
						Required: true,
						Sources:  cli.EnvVars("EMOTUNE_USER_PASSWORD"),
					},
					&cli.StringSliceFlag{Name: "genre", Usage: "Preferred genre (repeatable)"},
				},
				Action: r.UserCreate,
			},
			{
				Name:   "list",
				Usage:  "List accounts",
				Flags:  append([]cli.Flag{&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 50}}, jsonFlags()...),
				Action: r.UserList,
			},
			{
				Name:   "sessions",
				Usage:  "List the sessions of an account",
				Flags:  append([]cli.Flag{userFlag()}, jsonFlags()...),
				Action: r.UserSessions,
			},
			{
				Name:   "revoke-sessions",
				Usage:  "Revoke every active session of an account",
				Flags:  []cli.Flag{userFlag()},
				Action: r.UserRevokeSessions,
			},
			{
				Name:   "request-reset",
				Usage:  "Send a password reset code",
				Flags:  []cli.Flag{userFlag()},
				Action: r.UserRequestReset,
			},
			{
				Name:   "reset-state",
				Usage:  "Show where an account is in the password reset flow",
				Flags:  []cli.Flag{userFlag()},
				Action: r.UserResetState,
			},
		},
	}
}

func detectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Detect the emotion of one or more face images",
		ArgsUsage: "<image> [image...]",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent classifier requests (max 5)",
				Value:   3,
			},
		}, jsonFlags()...),
		Action: r.Detect,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse liked songs and recommendations in the terminal",
		Flags: []cli.Flag{
			userFlag(),
			languageFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the UI owns the terminal",
				Value: "./tmp/emotune-tui.log",
			},
		},
		Action: r.TUI,
	}
}
