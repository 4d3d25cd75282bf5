package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"stratsim/internal/blob"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func (f Format) contentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// WriteCSV writes the header and rows of t.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteJSON writes t as an indented JSON object.
func WriteJSON(w io.Writer, t Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// Encode renders t in format.
func Encode(t Table, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatCSV:
		err = WriteCSV(&buf, t)
	case FormatJSON:
		err = WriteJSON(&buf, t)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Exporter writes tables to a blob store under prefix, one object per table
// and format. Re-exporting a table replaces the previous object.
type Exporter struct {
	store  blob.Store
	prefix string
}

// NewExporter returns an exporter writing under prefix (default "reports").
func NewExporter(store blob.Store, prefix string) *Exporter {
	if prefix == "" {
		prefix = "reports"
	}
	return &Exporter{store: store, prefix: prefix}
}

// Key returns the blob key t is exported to.
func (e *Exporter) Key(t Table, format Format) string {
	return path.Join(e.prefix, t.Name+"."+string(format))
}

// Export encodes t and writes it.
func (e *Exporter) Export(ctx context.Context, t Table, format Format) (blob.Info, error) {
	data, err := Encode(t, format)
	if err != nil {
		return blob.Info{}, err
	}
	info, err := blob.Overwrite(ctx, e.store, e.Key(t, format), data, blob.PutOptions{
		ContentType: format.contentType(),
		Metadata:    map[string]string{"title": t.Title},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("export %s: %w", t.Name, err)
	}
	return info, nil
}
