package annot

import (
	"fmt"
	"strings"
)

// CSQFormat maps the positional values of an annotation INFO entry to
// field names, as declared by the annotator in the VCF header:
//
//	##INFO=<ID=ANN,Number=.,Type=String,Description="... Format: Allele|Consequence|...">
type CSQFormat struct {
	Key    string
	Fields []string
}

// ParseCSQFormat extracts the annotation field layout from VCF header
// lines for the given INFO key.
func ParseCSQFormat(header []string, key string) (*CSQFormat, error) {
	marker := "##INFO=<ID=" + key + ","
	for _, line := range header {
		if !strings.HasPrefix(line, marker) {
			continue
		}
		idx := strings.Index(line, "Format: ")
		if idx < 0 {
			return nil, fmt.Errorf("INFO %s header has no Format declaration", key)
		}
		layout := line[idx+len("Format: "):]
		layout = strings.TrimRight(layout, `">`)
		return &CSQFormat{Key: key, Fields: strings.Split(layout, "|")}, nil
	}
	return nil, fmt.Errorf("no INFO %s declaration in VCF header", key)
}

// Decode splits one pipe-delimited annotation block into a field map.
// Empty values are kept as empty strings; callers treat them as absent.
func (f *CSQFormat) Decode(entry string) map[string]string {
	values := strings.Split(entry, "|")
	raw := make(map[string]string, len(f.Fields))
	for i, name := range f.Fields {
		if i < len(values) {
			raw[name] = values[i]
		} else {
			raw[name] = ""
		}
	}
	return raw
}
