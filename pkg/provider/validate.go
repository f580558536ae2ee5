package provider

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

var identifierRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks the configuration for errors and applies defaults.
func (c *ProvidersConfig) Validate() error {
	if len(c.DataProviders) == 0 {
		return fmt.Errorf("no data providers specified in configuration")
	}

	ids := make(map[int]struct{})
	idents := make(map[string]struct{})
	for i := range c.DataProviders {
		dp := &c.DataProviders[i]
		warnings, err := dp.Validate()
		if err != nil {
			return fmt.Errorf("data provider %d: %w", i+1, err)
		}
		if _, ok := ids[dp.ID]; ok {
			return fmt.Errorf("data provider %d: duplicate id %d", i+1, dp.ID)
		}
		if _, ok := idents[dp.Identifier]; ok {
			return fmt.Errorf("data provider %d: duplicate identifier '%s'",
				i+1, dp.Identifier)
		}
		ids[dp.ID] = struct{}{}
		idents[dp.Identifier] = struct{}{}
		c.Warnings = append(c.Warnings, warnings...)
	}

	return nil
}

// Validate checks a single data provider. Fatal problems are returned as
// an error, fixable ones are corrected and returned as warnings.
func (d *DataProvider) Validate() ([]ValidationWarning, error) {
	var warnings []ValidationWarning
	warn := func(field, msg, suggestion string) {
		warnings = append(warnings, ValidationWarning{
			DataProviderID: d.ID,
			Field:          field,
			Message:        msg,
			Suggestion:     suggestion,
		})
	}

	if d.ID <= 0 {
		return nil, fmt.Errorf("id must be a positive number")
	}

	d.Identifier = strings.TrimSpace(d.Identifier)
	if !identifierRe.MatchString(d.Identifier) {
		return nil, fmt.Errorf(
			"identifier '%s' must start with a lowercase letter and "+
				"contain only lowercase letters, digits and '_'",
			d.Identifier,
		)
	}

	d.Type = Type(strings.ToLower(strings.TrimSpace(string(d.Type))))
	if !slices.Contains(Types, d.Type) {
		return nil, fmt.Errorf(
			"unknown type '%s', supported types are %v", d.Type, Types,
		)
	}

	d.Source = strings.TrimSpace(d.Source)
	if d.Source == "" {
		return nil, fmt.Errorf("source is required")
	}

	if d.Name == "" {
		d.Name = d.Identifier
	}

	if d.PageSize < 0 {
		warn("page_size", "page_size cannot be negative",
			"Remove 'page_size' to use the default value")
		d.PageSize = 0
	}
	if d.PageSize == 0 {
		d.PageSize = defaultPageSize[d.Type]
	}

	if d.MaxRecords < 0 {
		warn("max_records", "max_records cannot be negative",
			"Set 'max_records: 0' to harvest all records")
		d.MaxRecords = 0
	}

	if !isDuration(d.HarvestInterval) {
		if d.HarvestInterval != "" {
			warn("harvest_interval",
				fmt.Sprintf("invalid duration '%s'", d.HarvestInterval),
				"Use Go duration format, for example '24h' or '30m'")
		}
		d.HarvestInterval = DefaultHarvestInterval
	}

	if !isDuration(d.PageDelay) {
		if d.PageDelay != "" {
			warn("page_delay",
				fmt.Sprintf("invalid duration '%s'", d.PageDelay),
				"Use Go duration format, for example '1s' or '500ms'")
		}
		d.PageDelay = DefaultPageDelay
	}

	// only exports keep stable record IDs and modification times
	if d.SupportsIncremental && d.Type != ObsDB {
		warn("supports_incremental",
			fmt.Sprintf("type '%s' cannot be harvested incrementally", d.Type),
			"Remove 'supports_incremental'")
		d.SupportsIncremental = false
	}

	if len(d.Datasets) > 0 && d.Type != Shark {
		warn("datasets",
			fmt.Sprintf("datasets are ignored for type '%s'", d.Type),
			"Remove 'datasets'")
		d.Datasets = nil
	}

	return warnings, nil
}

// Select returns providers with requested IDs. If ids is empty, all
// active providers are returned. Warnings report requested IDs that do not
// exist and inactive providers that were requested explicitly.
func Select(
	dps []DataProvider,
	ids []int,
) ([]DataProvider, []string, error) {
	var res []DataProvider
	var warnings []string

	if len(ids) == 0 {
		for _, v := range dps {
			if v.IsActive {
				res = append(res, v)
			}
		}
		if len(res) == 0 {
			return nil, nil, fmt.Errorf("no active data providers")
		}
		return res, nil, nil
	}

	found := make(map[int]struct{})
	for _, v := range dps {
		if !slices.Contains(ids, v.ID) {
			continue
		}
		found[v.ID] = struct{}{}
		if !v.IsActive {
			warnings = append(warnings,
				fmt.Sprintf("data provider %d is not active, harvesting anyway", v.ID))
		}
		res = append(res, v)
	}

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			warnings = append(warnings,
				fmt.Sprintf("data provider ID %d not found in configuration", id))
		}
	}

	if len(res) == 0 {
		return nil, warnings, fmt.Errorf("no data providers matched IDs %v", ids)
	}
	return res, warnings, nil
}

func isDuration(s string) bool {
	d, err := time.ParseDuration(s)
	return err == nil && d >= 0
}
