package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"networth/internal/core"
)

func sample() []core.Entry {
	return []core.Entry{
		{ID: 1, Date: core.NewDate(2024, 1, 1), Class: core.Asset, Subcategory: "Cash", Description: "wallet, drawer", Value: core.Money{Cents: 100000}},
		{ID: 2, Date: core.NewDate(2024, 1, 2), Class: core.Liability, Subcategory: "Student Loans", Value: core.Money{Cents: 20050}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	want := "id,date,class,subcategory,description,value\n" +
		"1,2024-01-01,asset,Cash,\"wallet, drawer\",1000.00\n" +
		"2,2024-01-02,liability,Student Loans,,200.50\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "2024-01-01", decoded[0]["date"])
	assert.Equal(t, 200.5, decoded[1]["value"])

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Student Loans", rows[2][3])
	assert.Equal(t, "200.5", rows[2][5])

	width, err := f.GetColWidth(SheetName, "E")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": CSV, "JSON": JSON, "excel": XLSX, "": CSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.True(t, errors.Is(err, core.ErrValidation))

	assert.Equal(t, "entries.xlsx", XLSX.Filename("entries"))
	assert.Equal(t, "application/json", JSON.ContentType())
}
