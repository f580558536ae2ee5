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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnsos/internal/ioprocess"
	"github.com/gnames/gnsos/internal/ioprovider"
	"github.com/gnames/gnsos/pkg/errcode"
	"github.com/gnames/gnsos/pkg/parserpool"
	"github.com/gnames/gnsos/pkg/process"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/spf13/cobra"
)

// getProcessCmd returns the process command.
func getProcessCmd() *cobra.Command {
	var providerIDs []int

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Create processed observations from verbatim ones",
		Long: `Map harvested verbatim observations to processed observations.

This command:
  1. Reads the verbatim collection of every selected data provider
  2. Maps records to Darwin Core terms
  3. Parses scientific names and validates coordinates and dates
  4. Writes results into the inactive processed collection
  5. Makes that collection active

Readers keep using the active collection until processing of a
provider is complete.

Examples:
  gnsos process
  gnsos process -p 1,3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runProcess(providerIDs)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	providerIDsFlag(processCmd, &providerIDs, "process")

	return processCmd
}

func runProcess(providerIDs []int) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	pc, err := ioprovider.New(cfg).Load()
	if err != nil {
		return err
	}

	dps, warnings, err := provider.Select(pc.DataProviders, providerIDs)
	for _, v := range warnings {
		gn.Warn(v)
	}
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	pool := parserpool.NewPool(cfg.JobsNumber)
	defer pool.Close()

	p := ioprocess.New(
		st.backend, process.NewBuilder(pool),
		ioprocess.OptJobs(cfg.JobsNumber),
		ioprocess.OptProgress(true),
		ioprocess.OptRepoOptions(repoOptions(cfg)...),
	)

	var failed int
	for _, dp := range dps {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		count, err := p.Process(ctx, dp)
		if err != nil {
			failed++
			slog.Error("Cannot process provider",
				"provider", dp.Identifier, "error", err)
			gn.PrintErrorMessage(err)
			continue
		}
		gn.Info("Processed %s observations of <em>%s</em> in %s",
			humanize.Comma(int64(count)), dp.Identifier,
			gnfmt.TimeString(time.Since(start).Seconds()))
	}

	if failed > 0 && failed == len(dps) {
		return &gn.Error{
			Code: errcode.ProcessWriteError,
			Msg:  "All %d data providers failed to process",
			Vars: []any{failed},
			Err:  fmt.Errorf("all %d providers failed", failed),
		}
	}
	if err := ctx.Err(); err != nil {
		return errors.New("processing canceled")
	}
	return nil
}
