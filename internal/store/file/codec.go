package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// Format is the on-disk encoding of an FAQ document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format by file extension. Anything that is not
// .yaml/.yml is read as JSON5 (a superset of JSON).
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// document is the top-level shape of an FAQ file. A bare list of entries
// is accepted as well.
type document struct {
	Entries []store.FAQEntry `json:"entries" yaml:"entries"`
}

// Decode parses an FAQ document.
func Decode(data []byte, format Format) ([]store.FAQEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	bare := trimmed[0] == '[' ||
		(format == FormatYAML && trimmed[0] == '-' && !bytes.HasPrefix(trimmed, []byte("---")))

	var doc document
	var err error
	switch {
	case format == FormatYAML && bare:
		err = yaml.Unmarshal(trimmed, &doc.Entries)
	case format == FormatYAML:
		err = yaml.Unmarshal(trimmed, &doc)
	case bare:
		err = json5.Unmarshal(trimmed, &doc.Entries)
	default:
		err = json5.Unmarshal(trimmed, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode faq %s: %w", format, err)
	}
	return doc.Entries, nil
}

// Encode renders entries as a {"entries": [...]} document. JSON output is
// plain indented JSON, which every JSON5 reader accepts.
func Encode(entries []store.FAQEntry, format Format) ([]byte, error) {
	if entries == nil {
		entries = []store.FAQEntry{}
	}
	doc := document{Entries: entries}
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return nil, fmt.Errorf("encode faq yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode faq yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode faq json: %w", err)
	}
	return append(data, '\n'), nil
}
