package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Delimiters describes the snapshot wire format. The field delimiter has
// changed between protocol versions, so none of them are hard-coded.
type Delimiters struct {
	Record   string
	Field    string
	KeyValue string
}

// DefaultDelimiters returns the delimiters current instances send
func DefaultDelimiters() Delimiters {
	return Delimiters{
		Record:   "|",
		Field:    ",",
		KeyValue: ":",
	}
}

// Validate checks that every delimiter is set and they are distinct
func (d Delimiters) Validate() error {
	if d.Record == "" || d.Field == "" || d.KeyValue == "" {
		return errors.New("snapshot delimiters must not be empty")
	}
	if d.Record == d.Field || d.Record == d.KeyValue || d.Field == d.KeyValue {
		return fmt.Errorf("snapshot delimiters must be distinct (record %q, field %q, key/value %q)",
			d.Record, d.Field, d.KeyValue)
	}
	return nil
}

// Record is one player's reported fields
type Record map[string]string

// Diagnostic reports a field that was dropped while parsing
type Diagnostic struct {
	// Record is the index of the record segment within the snapshot
	Record  int
	Segment string
	Reason  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("record %d: %s: %q", d.Record, d.Reason, d.Segment)
}

// Diagnostic reasons
const (
	ReasonMissingDelimiter = "missing key/value delimiter"
	ReasonEmptyKey         = "empty key"
)

// Parser decodes raw delimited snapshots into records
type Parser struct {
	delims Delimiters
	logger *slog.Logger
}

// New creates a new Parser
func New(delims Delimiters, logger *slog.Logger) *Parser {
	return &Parser{
		delims: delims,
		logger: logger,
	}
}

// Parse splits raw into records and stamps each one with shared, whose
// values override reported ones. Malformed fields are dropped and
// reported as diagnostics; the rest of the record is kept. Records with
// no usable field are skipped.
func (p *Parser) Parse(raw string, shared map[string]string) ([]Record, []Diagnostic) {
	var records []Record
	var diags []Diagnostic

	for i, segment := range strings.Split(raw, p.delims.Record) {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		record := make(Record)
		for _, field := range strings.Split(segment, p.delims.Field) {
			if strings.TrimSpace(field) == "" {
				continue
			}

			key, value, ok := strings.Cut(field, p.delims.KeyValue)
			if !ok {
				diags = append(diags, Diagnostic{Record: i, Segment: field, Reason: ReasonMissingDelimiter})
				continue
			}
			key = strings.TrimSpace(key)
			if key == "" {
				diags = append(diags, Diagnostic{Record: i, Segment: field, Reason: ReasonEmptyKey})
				continue
			}
			record[key] = strings.TrimSpace(value)
		}

		if len(record) == 0 {
			continue
		}
		for k, v := range shared {
			record[k] = v
		}
		records = append(records, record)
	}

	for _, d := range diags {
		p.logger.Warn("dropped malformed snapshot field",
			"record", d.Record,
			"segment", d.Segment,
			"reason", d.Reason,
		)
	}

	return records, diags
}
