package main

import (
	"os"

	chainsync "github.com/horizontalsystems/chainsync"
	"github.com/horizontalsystems/chainsync/common"
	"github.com/horizontalsystems/chainsync/config"
	"github.com/horizontalsystems/chainsync/log"
	"github.com/urfave/cli/v2"
)

const appName = "chainsync"

var (
	configFileFlag = cli.StringSliceFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration file(s)",
		Required: false,
	}
	componentsFlag = cli.StringSliceFlag{
		Name:     config.FlagComponents,
		Aliases:  []string{"co"},
		Usage:    "List of components to run",
		Required: false,
		Value:    cli.NewStringSlice(common.SYNCER, common.RPC, common.METRICS),
	}
	saveConfigFlag = cli.StringFlag{
		Name:     config.FlagSaveConfigPath,
		Aliases:  []string{"s"},
		Usage:    "Save final configuration into to the indicated path (name: chainsync_config.toml)",
		Required: false,
	}
	blockchainFlag = cli.StringFlag{
		Name:     config.FlagBlockchain,
		Aliases:  []string{"b"},
		Usage:    "Uid of the blockchain, all of them if not set",
		Required: false,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Version = chainsync.Version
	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  versionCmd,
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Sync the configured blockchains and serve the RPC",
			Action:  start,
			Flags:   []cli.Flag{&configFileFlag, &componentsFlag, &saveConfigFlag},
		},
		{
			Name:    "sources",
			Aliases: []string{},
			Usage:   "List the sync sources of the blockchains, marking the selected one",
			Action:  sourcesCmd,
			Flags:   []cli.Flag{&configFileFlag, &blockchainFlag},
		},
		{
			Name:    "config",
			Aliases: []string{},
			Usage:   "Print the default configuration",
			Action:  configCmd,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}

func versionCmd(*cli.Context) error {
	chainsync.PrintVersion(os.Stdout)
	return nil
}
