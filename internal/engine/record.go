package engine

// ValidateRecord applies every rule to the record's corresponding field
// and unions the findings. Missing columns are treated as empty values.
// rowIndex is the 1-based position of the record within its dataset.
func ValidateRecord(rec Record, rules []FieldRule, rowIndex int) ValidationOutcome {
	out := ValidationOutcome{RowIndex: rowIndex}

	for _, rule := range rules {
		value, present := rec[rule.FieldName]
		res := ValidateField(value, present, rule)
		out.Errors = append(out.Errors, res.Errors...)
		out.Warnings = append(out.Warnings, res.Warnings...)
	}

	out.Valid = len(out.Errors) == 0
	return out
}

// ValidateRecords validates every record in the dataset. One bad record
// never prevents evaluation of the rest; every record gets an outcome.
// An empty rule list is caller misuse and returns ErrNoRules.
func ValidateRecords(ds Dataset, rules []FieldRule) ([]ValidationOutcome, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}

	outcomes := make([]ValidationOutcome, 0, len(ds.Rows))
	for i, rec := range ds.Rows {
		outcomes = append(outcomes, ValidateRecord(rec, rules, i+1))
	}
	return outcomes, nil
}
