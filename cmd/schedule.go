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
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnsos/internal/iometrics"
	"github.com/gnames/gnsos/internal/ioprocess"
	"github.com/gnames/gnsos/internal/ioprovider"
	"github.com/gnames/gnsos/pkg/config"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/parserpool"
	"github.com/gnames/gnsos/pkg/process"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/spf13/cobra"
)

// getScheduleCmd returns the schedule command.
func getScheduleCmd() *cobra.Command {
	var (
		providerIDs []int
		noProcess   bool
	)

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Harvest data providers by their intervals",
		Long: `Run harvests of data providers repeatedly.

Every provider is harvested when the command starts and then again
after its harvest_interval from providers.yaml. Providers are harvested
one at a time. After a successful harvest the provider is processed.

Prometheus metrics are served at /metrics on metrics.addr of
config.yaml while the command runs.

Examples:
  gnsos schedule
  gnsos schedule -p 1,3 --no-process`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runSchedule(cmd, providerIDs, noProcess)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	providerIDsFlag(scheduleCmd, &providerIDs, "schedule")
	scheduleCmd.Flags().BoolVar(
		&noProcess, "no-process", false,
		"do not process providers after harvest",
	)

	return scheduleCmd
}

func runSchedule(
	_ *cobra.Command,
	providerIDs []int,
	noProcess bool,
) error {
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

	runner, closeRunner := newRunner(st)
	defer closeRunner()

	var p *ioprocess.Processor
	if !noProcess {
		pool := parserpool.NewPool(cfg.JobsNumber)
		defer pool.Close()
		p = ioprocess.New(
			st.backend, process.NewBuilder(pool),
			ioprocess.OptJobs(cfg.JobsNumber),
			ioprocess.OptRepoOptions(repoOptions(cfg)...),
		)
	}

	if srv := metricsServer(cfg.Metrics.Addr); srv != nil {
		defer func() {
			sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(sCtx); err != nil {
				slog.Error("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	gn.Info("Scheduling <em>%d</em> data providers, press Ctrl-C to stop",
		len(dps))

	due := make(map[int]time.Time, len(dps))
	for {
		dp, at := nextDue(dps, due)
		slog.Info("Next scheduled harvest",
			"provider", dp.Identifier, "at", at.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(at))
		select {
		case <-ctx.Done():
			timer.Stop()
			gn.Info("Schedule stopped")
			return nil
		case <-timer.C:
		}

		cfg.Update([]config.Option{config.OptHarvestProviderIDs([]int{dp.ID})})
		infos, err := runner.Run(ctx, pc.DataProviders)
		due[dp.ID] = time.Now().Add(dp.Interval())
		if err != nil {
			if ctx.Err() != nil {
				gn.Info("Schedule stopped")
				return nil
			}
			slog.Error("Scheduled harvest failed",
				"provider", dp.Identifier, "error", err)
			continue
		}

		if p == nil || len(infos) == 0 || infos[0].Status != harvest.Success {
			continue
		}
		if _, err = p.Process(ctx, dp); err != nil {
			slog.Error("Scheduled processing failed",
				"provider", dp.Identifier, "error", err)
			gn.PrintErrorMessage(err)
		}
	}
}

// nextDue returns the provider with the earliest due time. Providers
// without a due time are due now. Ties go to the first provider in dps.
func nextDue(
	dps []provider.DataProvider,
	due map[int]time.Time,
) (provider.DataProvider, time.Time) {
	var res provider.DataProvider
	var at time.Time
	for i, v := range dps {
		t, ok := due[v.ID]
		if !ok {
			t = time.Now()
		}
		if i == 0 || t.Before(at) {
			res, at = v, t
		}
	}
	return res, at
}

// metricsServer starts serving prometheus metrics at addr. Empty addr
// disables it and nil is returned.
func metricsServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", iometrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Metrics server starting", "addr", addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
			gn.Warn("Cannot serve metrics at <em>%s</em>: %s", addr, err)
		}
	}()
	return srv
}
