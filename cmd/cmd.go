// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles provider authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider authorization",
		Commands: []*cli.Command{
			{
				Name:  "connect",
				Usage: "Authorize a streaming provider through the browser",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "provider"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "role",
						Usage: "Authorize the provider as source or destination",
						Value: "source",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the granted credential as JSON",
					},
				},
				Action: r.AuthConnect,
			},
			{
				Name:   "status",
				Usage:  "Check engine availability (calls /health)",
				Action: r.AuthStatus,
			},
		},
	}
}

// migrateCommand handles migration session operations
func migrateCommand(r *Runner) *cli.Command {
	configFlags := []cli.Flag{
		&cli.FloatFlag{
			Name:  "hard-threshold",
			Usage: "Auto-accept matches scoring at or above this value",
		},
		&cli.FloatFlag{
			Name:  "reject-threshold",
			Usage: "Auto-reject matches scoring below this value",
		},
		&cli.IntFlag{
			Name:  "max-candidates",
			Usage: "Candidates surfaced per ambiguous song",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Resolve matches without writing to the destination",
		},
	}

	runFlags := append([]cli.Flag{
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source provider (spotify, apple_music, local_files)",
			Value: "local_files",
		},
		&cli.StringFlag{
			Name:     "dest",
			Usage:    "Destination provider",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "playlist",
			Usage: "Playlist name recorded in history",
		},
		&cli.BoolFlag{
			Name:  "accept-best",
			Usage: "Resolve ambiguous songs by accepting the best match",
		},
	}, configFlags...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Run and inspect library migrations",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "Upload a library export and show what the engine parsed",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.MigratePreview,
			},
			{
				Name:      "run",
				Usage:     "Run a full migration, resolving decisions at the prompt",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags:     runFlags,
				Action:    r.MigrateRun,
			},
			{
				Name:      "watch",
				Usage:     "Run a migration in the interactive TUI",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags:     runFlags,
				Action:    r.MigrateWatch,
			},
			{
				Name:      "status",
				Usage:     "Fetch the current snapshot of a session",
				Arguments: []cli.Argument{&cli.StringArg{Name: "session"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.MigrateStatus,
			},
			{
				Name:      "decide",
				Usage:     "Submit a decision for a session awaiting one",
				Arguments: []cli.Argument{&cli.StringArg{Name: "session"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "choice",
						Usage:    "accept, reject, or manual",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "candidate",
						Usage: "Candidate ID for manual choices",
					},
				},
				Action: r.MigrateDecide,
			},
			{
				Name:      "results",
				Usage:     "Fetch the final report for a completed session",
				Arguments: []cli.Argument{&cli.StringArg{Name: "session"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export the report as csv, md, or text instead of JSON",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path for exported reports",
					},
				},
				Action: r.MigrateResults,
			},
			{
				Name:  "history",
				Usage: "List locally recorded migration attempts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by session status",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Filter by source provider",
					},
					&cli.StringFlag{
						Name:  "dest",
						Usage: "Filter by destination provider",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.MigrateHistory,
			},
		},
	}
}

// apiCommand handles direct engine API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the migration engine",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the engine, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
