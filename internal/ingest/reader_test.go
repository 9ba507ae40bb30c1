package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"catalog-pipeline/internal/models"
)

const sampleCSV = `Handle,Title,Body (HTML),Vendor,Product Category,Tags,Published,Option1 Name,Option1 Value,Option2 Name,Option3 Name,Variant Price,Variant Compare At Price,Cost per item,Variant Inventory Tracker,SEO Title,SEO Description,Status
pearl-necklace,Classic Pearl Necklace,<p>Hand-knotted pearls.</p>,Perlys,Necklaces,"pearl, necklace",TRUE,Size,45cm,,,89.00,120.00,35.50,shopify,,,active
mystery-ring,Mystery Ring,,,,,FALSE,,,,,not-a-number,,,,,,draft
`

func TestParseCSV(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Len(t, table.Columns, 18)
	assert.True(t, table.HasColumn("handle"))
	assert.True(t, table.HasColumn("body (html)"))
	assert.True(t, table.HasColumn("variant compare at price"))
	require.Len(t, table.Records, 2)

	first := table.Records[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "pearl-necklace", first.Handle)
	assert.Equal(t, "Classic Pearl Necklace", first.Title)
	require.NotNil(t, first.Vendor)
	assert.Equal(t, "Perlys", *first.Vendor)
	require.NotNil(t, first.VariantPrice)
	assert.Equal(t, 89.00, *first.VariantPrice)
	require.NotNil(t, first.CompareAtPrice)
	assert.Equal(t, 120.00, *first.CompareAtPrice)
	require.NotNil(t, first.Published)
	assert.True(t, *first.Published)
	require.NotNil(t, first.Option1Name)
	assert.Equal(t, "Size", *first.Option1Name)
	assert.Nil(t, first.Option2Name)
	assert.Nil(t, first.SEOTitle)

	second := table.Records[1]
	assert.Equal(t, 3, second.Row)
	assert.Nil(t, second.Vendor)
	assert.Nil(t, second.Category)
	assert.Nil(t, second.VariantPrice, "unparseable numbers resolve to null")
	require.NotNil(t, second.Published)
	assert.False(t, *second.Published)
}

func TestParseCSV_HeaderNormalization(t *testing.T) {
	csvData := "Handle *, TITLE ,Variant Price *\nh1,Some Title,10.00\n"
	table, err := ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, []string{"handle", "title", "variant price"}, table.Columns)
	assert.Equal(t, "h1", table.Records[0].Handle)
	require.NotNil(t, table.Records[0].VariantPrice)
	assert.Equal(t, 10.00, *table.Records[0].VariantPrice)
}

func TestParseCSV_RaggedRows(t *testing.T) {
	csvData := "Handle,Title,Variant Price\nh1,Short Row\nh2,Full Row,25.00\n"
	table, err := ParseCSV(strings.NewReader(csvData))
	require.NoError(t, err)

	require.Len(t, table.Records, 2)
	assert.Nil(t, table.Records[0].VariantPrice)
	require.NotNil(t, table.Records[1].VariantPrice)
}

func TestParseCSV_EmptyInput(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Handle", "Title", "Variant Price", "Published"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"pearl-ring", "Pearl Ring", 45.5, "TRUE"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, []string{"handle", "title", "variant price", "published"}, table.Columns)
	require.Len(t, table.Records, 1)
	r := table.Records[0]
	assert.Equal(t, "pearl-ring", r.Handle)
	require.NotNil(t, r.VariantPrice)
	assert.Equal(t, 45.5, *r.VariantPrice)
	require.NotNil(t, r.Published)
	assert.True(t, *r.Published)
}

func TestParseXLSX_PrefersProductsSheet(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Products")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Wrong", "Sheet"}))
	require.NoError(t, f.SetSheetRow("Products", "A1", &[]interface{}{"Handle", "Title"}))
	require.NoError(t, f.SetSheetRow("Products", "A2", &[]interface{}{"h1", "Right Sheet Title"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, []string{"handle", "title"}, table.Columns)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "Right Sheet Title", table.Records[0].Title)
}

func TestParseXLSX_HeaderOnlyFails(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Handle", "Title"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = ParseXLSX(bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}

func TestParseXLSX_NotAnExcelFile(t *testing.T) {
	_, err := ParseXLSX(strings.NewReader("definitely not a zip archive"))
	assert.Error(t, err)
}

func TestTemplateRoundTrip_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSVTemplate(&buf, models.FeedImportTemplate()))

	table, err := ParseCSV(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	// the template header parses straight back into the full column set
	assert.Len(t, table.Columns, 18)
	assert.True(t, table.HasColumn("handle"))
	assert.True(t, table.HasColumn("seo description"))
	assert.Empty(t, table.Records)
}

func TestTemplateRoundTrip_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSXTemplate(&buf, models.FeedImportTemplate()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Products")
	assert.Contains(t, sheets, "Instructions")

	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// required markers are stripped during header normalization
	normalized := normalizeHeaders(rows[0])
	assert.Contains(t, normalized, "handle")
	assert.Contains(t, normalized, "variant price")
}
