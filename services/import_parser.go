package services

import (
	"iter"
	"strings"

	"github.com/yashrajoria/asset-inventory-backend/models"
)

// Field positions consumed from a data row. Every other column is ignored.
const (
	fieldDescription = 2
	fieldLocation    = 4
	fieldValueCents  = 10
	fieldTombo       = 15
	fieldResponsible = 23
)

// FileFormat describes the legacy export layout.
type FileFormat struct {
	RecordDelimiter string
	FieldDelimiter  string
	DataMarker      string
}

// DefaultFileFormat is the layout produced by the legacy patrimony system.
func DefaultFileFormat() FileFormat {
	return FileFormat{
		RecordDelimiter: "\n",
		FieldDelimiter:  "|",
		DataMarker:      "[%]",
	}
}

func (f FileFormat) withDefaults() FileFormat {
	def := DefaultFileFormat()
	if f.RecordDelimiter == "" {
		f.RecordDelimiter = def.RecordDelimiter
	}
	if f.FieldDelimiter == "" {
		f.FieldDelimiter = def.FieldDelimiter
	}
	if f.DataMarker == "" {
		f.DataMarker = def.DataMarker
	}
	return f
}

// ParseRecords yields one ParsedRecord per data row of data. Lines not
// starting with the data marker are dropped. Line numbers count retained
// rows only. The sequence can be ranged over once; later passes yield nothing.
func ParseRecords(data []byte, format FileFormat) iter.Seq[models.ParsedRecord] {
	format = format.withDefaults()
	consumed := false

	return func(yield func(models.ParsedRecord) bool) {
		if consumed {
			return
		}
		consumed = true

		line := 0
		for raw := range strings.SplitSeq(string(data), format.RecordDelimiter) {
			text := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
			if !strings.HasPrefix(text, format.DataMarker) {
				continue
			}
			line++
			if !yield(parseRow(line, strings.Split(text, format.FieldDelimiter))) {
				return
			}
		}
	}
}

func parseRow(line int, fields []string) models.ParsedRecord {
	return models.ParsedRecord{
		Line:        line,
		Description: field(fields, fieldDescription),
		Location:    field(fields, fieldLocation),
		ValueCents:  field(fields, fieldValueCents),
		Tombo:       field(fields, fieldTombo),
		Responsible: field(fields, fieldResponsible),
	}
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}
