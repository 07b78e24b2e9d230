// Package rules loads declarative field rules from a tabular rule
// definition. Rule sheets come from many tools and spell their columns
// differently ("Target Field Name" vs "field"); an alias table maps the
// variants onto canonical columns once, at load time, so the engine's
// FieldRule contract never sees them.
package rules

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/crosscheck-hq/crosscheck/internal/engine"
	"github.com/crosscheck-hq/crosscheck/internal/tabular"
)

// Canonical rule sheet columns.
const (
	colField     = "field"
	colType      = "type"
	colRequired  = "required"
	colMinLength = "minlength"
	colMaxLength = "maxlength"
	colPattern   = "pattern"
	colAllowed   = "allowed"
)

// Load parses a rule definition CSV into normalized field rules.
// Unparseable rows are skipped with a logged warning; they never abort
// the load. An aliases argument of nil uses the built-in alias table.
func Load(data []byte, aliases *AliasTable) ([]engine.FieldRule, error) {
	if aliases == nil {
		aliases = DefaultAliases()
	}

	ds, err := tabular.ParseDataset("rules", data)
	if err != nil {
		return nil, fmt.Errorf("parse rule sheet: %w", err)
	}

	canonical := aliases.Resolve(ds.Columns)
	if _, ok := canonical[colField]; !ok {
		return nil, fmt.Errorf("rule sheet has no field name column (got: %s)", strings.Join(ds.Columns, ", "))
	}

	var out []engine.FieldRule
	for i, row := range ds.Rows {
		rule, err := buildRule(row, canonical)
		if err != nil {
			slog.Warn("skipping unparseable rule row", "row", i+1, "error", err)
			continue
		}
		out = append(out, rule)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("rule sheet contains no usable rules")
	}
	return out, nil
}

// buildRule converts one rule sheet row into a FieldRule. canonical maps
// canonical column names to the sheet's actual column names.
func buildRule(row engine.Record, canonical map[string]string) (engine.FieldRule, error) {
	get := func(col string) string {
		actual, ok := canonical[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[actual])
	}

	name := get(colField)
	if name == "" {
		return engine.FieldRule{}, fmt.Errorf("missing field name")
	}

	rawType := get(colType)
	rule := engine.FieldRule{
		FieldName: name,
		Type:      engine.NormalizeType(rawType),
		RawType:   rawType,
		Required:  parseBoolish(get(colRequired)),
		Pattern:   get(colPattern),
	}

	if v := get(colMinLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return engine.FieldRule{}, fmt.Errorf("bad min length %q: %w", v, err)
		}
		rule.MinLength = n
	}
	if v := get(colMaxLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return engine.FieldRule{}, fmt.Errorf("bad max length %q: %w", v, err)
		}
		rule.MaxLength = n
	}

	if v := get(colAllowed); v != "" {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				rule.AllowedValues = append(rule.AllowedValues, p)
			}
		}
	}

	return rule, nil
}

// parseBoolish accepts the spellings rule sheets actually use for the
// required flag.
func parseBoolish(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1", "required":
		return true
	}
	return false
}
