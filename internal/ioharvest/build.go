package ioharvest

import (
	"github.com/gnames/gnsos/internal/ioclient"
	gnsos "github.com/gnames/gnsos/pkg"
	"github.com/gnames/gnsos/pkg/provider"
	"github.com/gnames/gnsos/pkg/verbatim"
)

// Builder creates harvesters of data providers by their type.
type Builder struct {
	backend verbatim.Backend
	fetcher Fetcher
	opts    []verbatim.RepoOption
}

// NewBuilder creates a Builder. Harvesters write into backend, archives
// and exports are obtained from fetcher.
func NewBuilder(
	backend verbatim.Backend,
	fetcher Fetcher,
	opts ...verbatim.RepoOption,
) *Builder {
	return &Builder{backend: backend, fetcher: fetcher, opts: opts}
}

// Build returns the harvester of a provider.
func (b *Builder) Build(dp provider.DataProvider) (gnsos.Harvester, error) {
	switch dp.Type {
	case provider.MVM:
		src := ioclient.NewMVMClient(dp.Source)
		return NewMVMHarvester(dp, src, b.backend, b.opts...), nil
	case provider.Shark:
		src := ioclient.NewSharkClient(dp.Source, dp.Delay())
		return NewSharkHarvester(dp, src, b.backend, b.opts...), nil
	case provider.DwcA:
		return NewDwcaHarvester(dp, b.fetcher, b.backend, b.opts...), nil
	case provider.ObsDB:
		return NewObsDBHarvester(dp, b.fetcher, b.backend, b.opts...), nil
	default:
		return nil, UnknownTypeError(dp.Identifier, string(dp.Type))
	}
}
