// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, tokenCommand, searchCommand, grabCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setupCommand initializes config, database and scratch storage
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config file, database and scratch directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// tokenCommand manages the persisted access credential
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Manage the cached access token",
		Commands: []*cli.Command{
			{
				Name:   "refresh",
				Usage:  "Exchange client credentials for a fresh access token",
				Action: r.TokenRefresh,
			},
			{
				Name:   "status",
				Usage:  "Show whether a valid access token is cached",
				Action: r.TokenStatus,
			},
			{
				Name:   "clear",
				Usage:  "Remove the cached access token",
				Action: r.TokenClear,
			},
		},
	}
}

// searchCommand queries the catalog for tracks
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
		},
		Action: r.Search,
	}
}

// grabCommand downloads preview artifacts for search results
func grabCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "grab",
		Usage: "Search and download a tagged preview artifact",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "pick",
				Aliases: []string{"p"},
				Usage:   "1-based index of the search result to download",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Download every result that has a preview",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent downloads when --all is set",
			},
		},
		Action: r.Grab,
	}
}
