package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valido/internal/schema"
)

func TestNew_AllSchemasValidate(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, []string{FileDispersion, FileRetenciones, FileSUA}, c.Types())
}

func TestNew_StrictLength(t *testing.T) {
	c, err := New(StrictLength())
	require.NoError(t, err)

	for _, fileType := range c.Types() {
		fs, ok := c.File(fileType)
		require.True(t, ok)
		assert.False(t, fs.TrailingFiller, "filler tolerated for %s", fileType)
	}
}

func TestCatalog_RecordShapes(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	tests := []struct {
		fileType   string
		lineLength int
	}{
		{FileSUA, 120},
		{FileDispersion, 98},
		{FileRetenciones, 77},
	}

	for _, tt := range tests {
		t.Run(tt.fileType, func(t *testing.T) {
			fs, ok := c.File(tt.fileType)
			require.True(t, ok)

			for _, recordType := range []string{RecordHeader, RecordDetail, RecordFooter} {
				record, ok := fs.Record(recordType)
				require.True(t, ok, "missing record type %s", recordType)
				assert.Equal(t, tt.lineLength, record.LineLength)

				// Discriminator leads every record type at bytes 1-2.
				first := record.Fields[0]
				assert.Equal(t, "tipo_registro", first.Name)
				assert.Equal(t, 1, first.Start)
				assert.Equal(t, 2, first.End)
			}
		})
	}
}

func TestCatalog_FooterCrossChecksDeclared(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	// Every file type carries a detail-count aggregate and a sum aggregate
	// so footer totals can be cross-checked in one streaming pass.
	for _, fileType := range c.Types() {
		fs, _ := c.File(fileType)
		var hasCount, hasSum bool
		for _, agg := range fs.Aggregates {
			switch agg.Kind {
			case schema.AggregateCount:
				hasCount = true
			case schema.AggregateSum:
				hasSum = true
			}
		}
		assert.True(t, hasCount, "%s: no count aggregate", fileType)
		assert.True(t, hasSum, "%s: no sum aggregate", fileType)
	}
}

func TestCatalog_UnknownFileType(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	_, ok := c.File("nomina")
	assert.False(t, ok)
}
