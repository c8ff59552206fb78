package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/config"
	"github.com/horizontalsystems/chainsync/syncsource"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

func sourcesCmd(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}
	blockchains := blockchain.All()
	if uid := cliCtx.String(config.FlagBlockchain); uid != "" {
		bt, err := blockchain.ParseType(uid)
		if err != nil {
			return err
		}
		blockchains = []blockchain.Type{bt}
	}

	if err := os.MkdirAll(c.Common.PathRWData, dataDirPermissions); err != nil {
		return err
	}
	storage, err := syncsource.NewSQLStorage(c.SyncSources.DBPath)
	if err != nil {
		return err
	}
	defer storage.Close()
	manager := syncsource.NewManager(c.SyncSources.Keys, c.Common.Testnet, storage)
	if c.SyncSources.CustomSourcesFile != "" {
		if err := manager.LoadCustomFile(c.SyncSources.CustomSourcesFile); err != nil {
			return err
		}
	}
	return printSources(os.Stdout, manager, blockchains)
}

type sourceLister interface {
	AllSyncSources(bt blockchain.Type) ([]syncsource.EvmSyncSource, error)
	SyncSource(bt blockchain.Type) (syncsource.EvmSyncSource, error)
}

func printSources(w io.Writer, sources sourceLister, blockchains []blockchain.Type) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Blockchain", "Name", "Kind", "URLs", "Explorer", "Custom", "Selected"})
	table.SetAutoWrapText(false)
	for _, bt := range blockchains {
		all, err := sources.AllSyncSources(bt)
		if err != nil {
			return fmt.Errorf("error listing the sources of %s: %w", bt, err)
		}
		selected, err := sources.SyncSource(bt)
		if err != nil {
			return fmt.Errorf("error resolving the source of %s: %w", bt, err)
		}
		for _, s := range all {
			table.Append([]string{
				bt.UID(),
				s.Name,
				string(s.RPC.Kind),
				strings.Join(s.RPC.URLs, "\n"),
				s.Transaction.Name,
				mark(s.Custom),
				mark(s.ID == selected.ID),
			})
		}
	}
	table.Render()
	return nil
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}
