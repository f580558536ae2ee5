// Package parserpool provides a pool of gnparser instances for concurrent
// parsing of scientific names of observed taxa.
// This is a pure package - parsing is computation, not I/O.
package parserpool

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gnames/gnlib/ent/nomcode"
	"github.com/gnames/gnparser"
	"github.com/gnames/gnparser/ent/parsed"
)

// Pool provides parsers for botanical and zoological names.
type Pool interface {
	// Parse parses a name string using the given nomenclatural code. It is
	// safe for concurrent use.
	Parse(nameString string, code nomcode.Code) (parsed.Parsed, error)

	// Close releases parsers. The pool cannot be used afterwards.
	Close()
}

// PoolImpl implements Pool with channels of gnparser instances.
type PoolImpl struct {
	botanicalCh  chan gnparser.GNparser
	zoologicalCh chan gnparser.GNparser
	poolSize     int
}

// NewPool creates a pool with jobsNum parsers per nomenclatural code.
// Zero jobsNum means runtime.NumCPU().
func NewPool(jobsNum int) Pool {
	poolSize := jobsNum
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}

	botanicalCfg := gnparser.NewConfig(
		gnparser.OptCode(nomcode.Botanical),
	)
	zoologicalCfg := gnparser.NewConfig(
		gnparser.OptCode(nomcode.Zoological),
	)

	return &PoolImpl{
		botanicalCh:  gnparser.NewPool(botanicalCfg, poolSize),
		zoologicalCh: gnparser.NewPool(zoologicalCfg, poolSize),
		poolSize:     poolSize,
	}
}

// Parse takes a parser of the code from the pool, parses the name and
// returns the parser back.
func (p *PoolImpl) Parse(nameString string, code nomcode.Code) (parsed.Parsed, error) {
	var ch chan gnparser.GNparser
	switch code {
	case nomcode.Botanical:
		ch = p.botanicalCh
	case nomcode.Zoological:
		ch = p.zoologicalCh
	default:
		return parsed.Parsed{}, fmt.Errorf("unsupported nomenclatural code: %v", code)
	}

	parser := <-ch
	result := parser.ParseName(nameString)
	ch <- parser

	return result, nil
}

// Close closes and drains both channels.
func (p *PoolImpl) Close() {
	for _, ch := range []chan gnparser.GNparser{p.botanicalCh, p.zoologicalCh} {
		if ch == nil {
			continue
		}
		close(ch)
		for range ch {
		}
	}
}

// botanicalKingdoms are governed by the botanical code (ICN).
var botanicalKingdoms = map[string]struct{}{
	"plantae":   {},
	"fungi":     {},
	"chromista": {},
}

// CodeFor returns the nomenclatural code that governs names of a kingdom.
// Unknown or empty kingdoms use the zoological code, most observations
// are of animals.
func CodeFor(kingdom string) nomcode.Code {
	k := strings.ToLower(strings.TrimSpace(kingdom))
	if _, ok := botanicalKingdoms[k]; ok {
		return nomcode.Botanical
	}
	return nomcode.Zoological
}
