/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/internal/ioarchive"
	"github.com/gnames/gnsos/internal/ioevents"
	"github.com/gnames/gnsos/internal/ioharvest"
	"github.com/gnames/gnsos/internal/iolock"
	"github.com/gnames/gnsos/internal/ioprovider"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/spf13/cobra"
)

// getHarvestCmd returns the harvest command.
func getHarvestCmd() *cobra.Command {
	var (
		providerIDs []int
		incremental bool
		maxRecords  int
	)

	harvestCmd := &cobra.Command{
		Use:   "harvest",
		Short: "Harvest observations of data providers",
		Long: `Harvest verbatim observations from data providers.

This command:
  1. Reads providers.yaml to find data providers
  2. Takes a harvest lock of every provider
  3. Reads observations from web services, archives or exports
  4. Writes them into a shadow collection in batches
  5. Replaces the verbatim collection of the provider on success
  6. Saves the result and publishes a harvest event

A failed provider does not stop the others. Interrupt (Ctrl-C) stops
the current provider, its previous data stays intact.

Examples:
  # Harvest all active providers
  gnsos harvest

  # Harvest specific providers only
  gnsos harvest --provider-ids 1,3
  gnsos harvest -p 1,3

  # Harvest only records changed after the last successful run
  gnsos harvest -i

  # Stop every provider after 1000 records
  gnsos harvest -m 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runHarvest(cmd, providerIDs, incremental, maxRecords)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	providerIDsFlag(harvestCmd, &providerIDs, "harvest")
	harvestCmd.Flags().BoolVarP(
		&incremental, "incremental", "i", false,
		"harvest only records changed since the last success",
	)
	harvestCmd.Flags().IntVarP(
		&maxRecords, "max-records", "m", 0,
		"stop every provider after this many records",
	)

	return harvestCmd
}

func runHarvest(
	cmd *cobra.Command,
	providerIDs []int,
	incremental bool,
	maxRecords int,
) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	cfg.Update(harvestOptions(cmd, providerIDs, incremental, maxRecords))

	pc, err := ioprovider.New(cfg).Load()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	runner, closeRunner := newRunner(st)
	defer closeRunner()

	gn.Info("Starting harvest of data providers...")
	infos, err := runner.Run(ctx, pc.DataProviders)
	if err != nil {
		return err
	}

	var harvested bool
	for _, v := range infos {
		if v.Status == harvest.Success {
			harvested = true
			break
		}
	}
	if harvested {
		gn.Info(`Next steps:
	 - Run '<em>gnsos process</em>' to create processed observations`)
	}

	return nil
}

// newRunner creates a harvest runner and the function that releases
// its lock and event connections.
func newRunner(st *store) (*ioharvest.Runner, func()) {
	fetcher := ioarchive.NewFetcher(config.ArchiveDir(cfg.HomeDir), cfg.Minio)
	builder := ioharvest.NewBuilder(st.backend, fetcher, repoOptions(cfg)...)
	locker := iolock.New(cfg)
	events := ioevents.New(cfg)

	runner := ioharvest.NewRunner(cfg, builder, st.infos, locker, events)
	return runner, func() {
		if err := events.Close(); err != nil {
			gn.Warn("Cannot close event publisher: %s", err)
		}
		if err := locker.Close(); err != nil {
			gn.Warn("Cannot close harvest locker: %s", err)
		}
	}
}
