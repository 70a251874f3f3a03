// Package loader reads source files into documents for ingestion.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Zereker/chatbot/internal/domain"
	"github.com/Zereker/chatbot/pkg/log"
)

// CSVLoader turns every data row of a CSV file into one Document. The first
// row is the header. Content is "column: value" per line unless Column is
// set, in which case content is that column's value alone.
type CSVLoader struct {
	Path   string
	Column string
}

// NewCSVLoader creates a loader for path.
func NewCSVLoader(path, column string) *CSVLoader {
	return &CSVLoader{Path: path, Column: column}
}

// Load reads the whole file.
func (l *CSVLoader) Load(ctx context.Context) ([]domain.Document, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", l.Path, err)
	}
	defer f.Close()

	return l.Parse(ctx, f)
}

// Parse reads documents from r. Source metadata still refers to l.Path.
func (l *CSVLoader) Parse(ctx context.Context, r io.Reader) ([]domain.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	column := -1
	if l.Column != "" {
		for i, name := range header {
			if name == l.Column {
				column = i
				break
			}
		}
		if column < 0 {
			return nil, fmt.Errorf("column %q not found in %s", l.Column, l.Path)
		}
	}

	var docs []domain.Document
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}

		var content string
		if column >= 0 {
			if column < len(record) {
				content = strings.TrimSpace(record[column])
			}
			// the embedder rejects empty input
			if content == "" {
				log.Logger("loader").Warn("skipping row with empty column",
					"file", l.Path, "line", line, "column", l.Column)
				continue
			}
		} else {
			content = rowContent(header, record)
		}

		docs = append(docs, domain.Document{
			Content: content,
			Metadata: map[string]string{
				domain.MetaSource: l.Path,
				domain.MetaLine:   strconv.Itoa(line),
			},
		})
	}

	return docs, nil
}

func rowContent(header, record []string) string {
	lines := make([]string, 0, len(record))
	for i, value := range record {
		name := strconv.Itoa(i)
		if i < len(header) && header[i] != "" {
			name = header[i]
		}
		lines = append(lines, name+": "+strings.TrimSpace(value))
	}
	return strings.Join(lines, "\n")
}
