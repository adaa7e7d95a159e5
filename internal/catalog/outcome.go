package catalog

// Outcome summarizes one ingestion batch.
type Outcome struct {
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Skips    []Skip `json:"skips,omitempty"`

	// Rows counts the data rows that reached the reconciler; blank rows are
	// not counted.
	Rows int `json:"rows"`
}

// Skip records why a row was not applied. Line is the 1-based line in the
// uploaded file, the header being line 1.
type Skip struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (o *Outcome) skip(line int, reason string) {
	o.Skipped++
	o.Skips = append(o.Skips, Skip{Line: line, Reason: reason})
}

// Applied returns the number of rows written to the store.
func (o Outcome) Applied() int {
	return o.Inserted + o.Updated
}
