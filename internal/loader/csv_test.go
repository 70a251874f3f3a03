package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/chatbot/internal/domain"
)

const carsCSV = `make,model,year
Fiat, Panda ,2019
Volvo,V70,2008
Kia,Ceed,2021
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVLoader_OneDocumentPerRow(t *testing.T) {
	path := writeCSV(t, carsCSV)

	docs, err := NewCSVLoader(path, "").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "make: Fiat\nmodel: Panda\nyear: 2019", docs[0].Content)
	assert.Equal(t, path, docs[0].Metadata[domain.MetaSource])
	assert.Equal(t, "1", docs[0].Metadata[domain.MetaLine])
	assert.Equal(t, "3", docs[2].Metadata[domain.MetaLine])

	for _, d := range docs {
		assert.NotEmpty(t, d.Content)
	}
}

func TestCSVLoader_RowsMatchSource(t *testing.T) {
	rows := []string{"id,text", "1,foo", "2,bar"}

	docs, err := NewCSVLoader("data.csv", "").Parse(context.Background(), strings.NewReader(strings.Join(rows, "\n")))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "id: 1\ntext: foo", docs[0].Content)
	assert.Equal(t, "id: 2\ntext: bar", docs[1].Content)
}

func TestCSVLoader_Column(t *testing.T) {
	path := writeCSV(t, carsCSV)

	docs, err := NewCSVLoader(path, "model").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "Panda", docs[0].Content)
	assert.Equal(t, "Ceed", docs[2].Content)
}

func TestCSVLoader_ColumnSkipsShortAndEmptyRows(t *testing.T) {
	rows := "make,model,year\nFiat,Panda,2019\nVolvo\nKia,,2021\nSeat,Ibiza,2015\n"

	docs, err := NewCSVLoader("data.csv", "model").Parse(context.Background(), strings.NewReader(rows))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Panda", docs[0].Content)
	assert.Equal(t, "1", docs[0].Metadata[domain.MetaLine])
	assert.Equal(t, "Ibiza", docs[1].Content)
	assert.Equal(t, "4", docs[1].Metadata[domain.MetaLine])
}

func TestCSVLoader_UnknownColumn(t *testing.T) {
	path := writeCSV(t, carsCSV)

	_, err := NewCSVLoader(path, "price").Load(context.Background())
	assert.ErrorContains(t, err, `column "price" not found`)
}

func TestCSVLoader_MissingFile(t *testing.T) {
	_, err := NewCSVLoader(filepath.Join(t.TempDir(), "nope.csv"), "").Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCSVLoader_HeaderOnly(t *testing.T) {
	docs, err := NewCSVLoader("data.csv", "").Parse(context.Background(), strings.NewReader("make,model\n"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCSVLoader_RaggedRows(t *testing.T) {
	docs, err := NewCSVLoader("data.csv", "").Parse(context.Background(), strings.NewReader("a,b\n1\n2,3,4\n"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a: 1", docs[0].Content)
	assert.Equal(t, "a: 2\nb: 3\n2: 4", docs[1].Content)
}

func TestCSVLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVLoader("data.csv", "").Parse(ctx, strings.NewReader(carsCSV))
	assert.ErrorIs(t, err, context.Canceled)
}
