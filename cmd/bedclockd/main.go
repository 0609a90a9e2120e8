package main

import (
	"log"
	"os"

	"github.com/urfave/cli"
)

var configPath string

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "config, c",
		Usage:       "path to the YAML configuration file",
		EnvVar:      "CONFIG_PATH",
		Value:       "./config/config.yaml",
		Destination: &configPath,
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "bedclockd"
	app.Usage = "bedside alarm clock daemon"
	app.Version = "1.0.0"
	app.Flags = globalFlags
	app.Action = serve
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "run the clock and its HTTP API (default)",
			Action: serve,
		},
		{
			Name:      "play",
			Usage:     "play one melody once on the configured backend",
			ArgsUsage: "[1|2|3]",
			Action:    play,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
