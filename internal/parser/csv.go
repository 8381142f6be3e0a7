package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docrange/internal/doctree"
	"github.com/dgallion1/docrange/internal/fragment"
)

// CSVParser handles CSV files. The whole file becomes one table; every
// record is a row and every field a cell holding one paragraph.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*fragment.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newBuilder()
	if len(records) == 0 {
		return b.document()
	}

	table := b.container(b.root(), doctree.KindTable)
	for _, record := range records {
		row := b.container(table, doctree.KindRow)
		for _, field := range record {
			cell := b.container(row, doctree.KindCell)
			b.paragraph(cell, "", field)
		}
	}
	return b.document()
}
