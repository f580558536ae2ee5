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
	"github.com/gnames/gnsos/pkg/config"
	"github.com/spf13/cobra"
)

// providerIDsFlag adds the --provider-ids flag to a command.
func providerIDsFlag(cmd *cobra.Command, ids *[]int, action string) {
	cmd.Flags().IntSliceVarP(
		ids, "provider-ids", "p", []int{},
		"data provider IDs to "+action+" (empty = all active)",
	)
}

// harvestOptions converts explicitly set flags to config options.
func harvestOptions(
	cmd *cobra.Command,
	providerIDs []int,
	incremental bool,
	maxRecords int,
) []config.Option {
	var res []config.Option
	if cmd.Flags().Changed("provider-ids") {
		res = append(res, config.OptHarvestProviderIDs(providerIDs))
	}
	if cmd.Flags().Changed("incremental") {
		res = append(res, config.OptHarvestIncremental(incremental))
	}
	if cmd.Flags().Changed("max-records") {
		res = append(res, config.OptHarvestMaxRecords(maxRecords))
	}
	return res
}
