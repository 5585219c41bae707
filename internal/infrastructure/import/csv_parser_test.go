package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("Valid UTF-8 CSV", func(t *testing.T) {
		csv := "brand,year,color\nToyota,2022,White\nHonda,2021,Blue"
		parser, err := NewCSVParser(strings.NewReader(csv))

		require.NoError(t, err)
		require.NotNil(t, parser)
	})

	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		// UTF-8 BOM: 0xEF, 0xBB, 0xBF
		csv := "\xEF\xBB\xBFbrand,year\nToyota,2022"
		parser, err := NewCSVParser(strings.NewReader(csv))

		require.NoError(t, err)
		require.NotNil(t, parser)

		err = parser.ParseHeader()
		require.NoError(t, err)

		// Header should not include BOM
		headers := parser.Headers()
		assert.Equal(t, "brand", headers[0])
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))

		assert.Error(t, err)
		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		csv := "brand;age;city\nToyota;30;NYC"
		parser, err := NewCSVParser(strings.NewReader(csv), WithDelimiter(';'))

		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		headers := parser.Headers()
		assert.Equal(t, []string{"brand", "age", "city"}, headers)
	})
}

func TestParseHeader(t *testing.T) {
	t.Run("Valid header", func(t *testing.T) {
		csv := "vin,brand,price\n001,Corolla,10.00"
		parser, _ := NewCSVParser(strings.NewReader(csv))

		err := parser.ParseHeader()

		require.NoError(t, err)
		assert.Equal(t, []string{"vin", "brand", "price"}, parser.Headers())
		assert.Equal(t, map[string]int{"vin": 0, "brand": 1, "price": 2}, parser.HeaderMap())
	})

	t.Run("Header with spaces trimmed", func(t *testing.T) {
		csv := "  vin  ,  brand  ,  price  \n001,Corolla,10.00"
		parser, _ := NewCSVParser(strings.NewReader(csv))

		err := parser.ParseHeader()

		require.NoError(t, err)
		assert.Equal(t, []string{"vin", "brand", "price"}, parser.Headers())
	})

	t.Run("HasHeader check", func(t *testing.T) {
		csv := "vin,brand,price\n001,Corolla,10.00"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		assert.True(t, parser.HasHeader("vin"))
		assert.True(t, parser.HasHeader("brand"))
		assert.False(t, parser.HasHeader("description"))
	})

	t.Run("ValidateHeaders finds missing", func(t *testing.T) {
		csv := "vin,brand\n001,Corolla"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		missing := parser.ValidateHeaders([]string{"vin", "brand", "price", "dealer_code"})
		assert.ElementsMatch(t, []string{"price", "dealer_code"}, missing)
	})
}

func TestReadRow(t *testing.T) {
	t.Run("Read single row", func(t *testing.T) {
		csv := "vin,brand,price\n001,Corolla,10.00"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row, err := parser.ReadRow()

		require.NoError(t, err)
		assert.Equal(t, 2, row.LineNumber)
		assert.Equal(t, "001", row.Get("vin"))
		assert.Equal(t, "Corolla", row.Get("brand"))
		assert.Equal(t, "10.00", row.Get("price"))
	})

	t.Run("Row with missing columns", func(t *testing.T) {
		csv := "vin,brand,price,dealer_code\n001,Corolla"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row, err := parser.ReadRow()

		require.NoError(t, err)
		assert.Equal(t, "001", row.Get("vin"))
		assert.Equal(t, "Corolla", row.Get("brand"))
		assert.Equal(t, "", row.Get("price"))
		assert.Equal(t, "", row.Get("dealer_code"))
	})

	t.Run("GetOrDefault", func(t *testing.T) {
		csv := "vin,brand,price\n001,Corolla,"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row, _ := parser.ReadRow()

		assert.Equal(t, "001", row.GetOrDefault("vin", "default"))
		assert.Equal(t, "N/A", row.GetOrDefault("price", "N/A"))
		assert.Equal(t, "none", row.GetOrDefault("missing", "none"))
	})

	t.Run("IsEmpty row", func(t *testing.T) {
		csv := "vin,brand\n,,\n001,Corolla"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row1, _ := parser.ReadRow()
		assert.True(t, row1.IsEmpty())

		row2, _ := parser.ReadRow()
		assert.False(t, row2.IsEmpty())
	})

	t.Run("EOF after last row", func(t *testing.T) {
		csv := "vin,brand\n001,Corolla"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		_, err := parser.ReadRow()
		require.NoError(t, err)

		_, err = parser.ReadRow()
		assert.Equal(t, io.EOF, err)
	})
}

func TestReadAllRows(t *testing.T) {
	t.Run("Read all rows", func(t *testing.T) {
		csv := "vin,brand\n001,Corolla\n002,Civic\n003,Model3"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		rows, err := parser.ReadAllRows()

		require.NoError(t, err)
		assert.Len(t, rows, 3)
		assert.Equal(t, "001", rows[0].Get("vin"))
		assert.Equal(t, "002", rows[1].Get("vin"))
		assert.Equal(t, "003", rows[2].Get("vin"))
	})

	t.Run("Skip empty rows", func(t *testing.T) {
		csv := "vin,brand\n001,Corolla\n,,\n,,\n002,Civic"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		rows, err := parser.ReadAllRows()

		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("TotalRows count", func(t *testing.T) {
		csv := "vin,brand\n001,Corolla\n002,Civic\n003,Model3"
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		parser.ReadAllRows()

		assert.Equal(t, 3, parser.TotalRows())
	})
}

func TestParseFromBytes(t *testing.T) {
	t.Run("Parse from byte slice", func(t *testing.T) {
		data := []byte("vin,brand\n001,Corolla")
		parser, err := ParseFromBytes(data)

		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		row, _ := parser.ReadRow()
		assert.Equal(t, "001", row.Get("vin"))
	})
}

func TestQuotedFields(t *testing.T) {
	t.Run("Fields with quotes", func(t *testing.T) {
		csv := `vin,brand,description
001,"Corolla","A reliable sedan"
002,"Civic","Contains, comma"
003,"Item ""Quoted""","With ""quotes"""
`
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row1, _ := parser.ReadRow()
		assert.Equal(t, "Corolla", row1.Get("brand"))
		assert.Equal(t, "A reliable sedan", row1.Get("description"))

		row2, _ := parser.ReadRow()
		assert.Equal(t, "Contains, comma", row2.Get("description"))

		row3, _ := parser.ReadRow()
		assert.Equal(t, `Item "Quoted"`, row3.Get("brand"))
		assert.Equal(t, `With "quotes"`, row3.Get("description"))
	})
}

func TestMultilineFields(t *testing.T) {
	t.Run("Fields with newlines", func(t *testing.T) {
		csv := "vin,brand,description\n001,Corolla,\"Line 1\nLine 2\nLine 3\""
		parser, _ := NewCSVParser(strings.NewReader(csv))
		parser.ParseHeader()

		row, _ := parser.ReadRow()
		assert.Equal(t, "Line 1\nLine 2\nLine 3", row.Get("description"))
	})
}

func TestGetColumnIndex(t *testing.T) {
	csv := "vin,brand,price\n001,Corolla,10.00"
	parser, _ := NewCSVParser(strings.NewReader(csv))
	parser.ParseHeader()

	idx, ok := parser.GetColumnIndex("brand")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = parser.GetColumnIndex("missing")
	assert.False(t, ok)
}
