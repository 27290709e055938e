package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valido/internal/schema"
	"valido/internal/schema/catalog"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func suaSchema(t *testing.T) *schema.FileSchema {
	t.Helper()
	cat, err := catalog.New()
	require.NoError(t, err)
	fs, ok := cat.File(catalog.FileSUA)
	require.True(t, ok)
	return fs
}

// buildLine assembles a fixed-width line from named field values, zero-padding
// numeric fields on the left and space-padding everything else on the right.
func buildLine(t *testing.T, rs *schema.RecordSchema, values map[string]string) string {
	t.Helper()
	buf := []byte(strings.Repeat(" ", rs.LineLength))
	for name, v := range values {
		f, ok := rs.Field(name)
		require.True(t, ok, "unknown field %q", name)
		width := f.Length()
		require.LessOrEqual(t, len(v), width, "value for %q too wide", name)
		if f.Type.Numeric() {
			v = strings.Repeat("0", width-len(v)) + v
		} else {
			v += strings.Repeat(" ", width-len(v))
		}
		copy(buf[f.Start-1:f.End], v)
	}
	return string(buf)
}

func suaDetail(t *testing.T, overrides map[string]string) string {
	t.Helper()
	fs := suaSchema(t)
	rs, ok := fs.Record(catalog.RecordDetail)
	require.True(t, ok)
	values := map[string]string{
		"tipo_registro":  "02",
		"nss":            "12928701650",
		"curp":           "GOMC900514HDFMRL06",
		"rfc":            "GODE561231GR8",
		"nombre":         "CARLOS GOMEZ MORALES",
		"sdi":            "35075",
		"dias_cotizados": "30",
		"incidencia":     "00",
		"total_cuota":    "123450",
		"movimiento":     "02",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return buildLine(t, rs, values)
}

func TestParse_SUAHeader(t *testing.T) {
	fs := suaSchema(t)
	rs, ok := fs.Record(catalog.RecordHeader)
	require.True(t, ok)
	line := buildLine(t, rs, map[string]string{
		"tipo_registro":     "01",
		"registro_patronal": "A1234567890",
		"rfc_patron":        "ABC680524P73",
		"periodo_pago":      "202608",
		"fecha_generacion":  "20260815",
		"razon_social":      "ACME SA DE CV",
		"folio_sua":         "42",
	})

	record := Parse(fs, 1, line, Options{At: testNow})

	require.Empty(t, record.Violations)
	assert.True(t, record.Valid)
	assert.Equal(t, catalog.RecordHeader, record.RecordType)
	assert.Equal(t, 1, record.LineNumber)

	assert.Equal(t, "ABC680524P73", record.Field("rfc_patron").Text)
	assert.Equal(t, int64(202608), record.Field("periodo_pago").Int)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), record.Field("fecha_generacion").Date)
	assert.Equal(t, "ACME SA DE CV", record.Field("razon_social").Text)
	assert.Equal(t, int64(42), record.Field("folio_sua").Int)
	assert.Equal(t, StateEmpty, record.Field("filler").State)
}

func TestParse_SUADetail(t *testing.T) {
	fs := suaSchema(t)
	record := Parse(fs, 7, suaDetail(t, nil), Options{At: testNow})

	require.Empty(t, record.Violations)
	assert.True(t, record.Valid)
	assert.Equal(t, catalog.RecordDetail, record.RecordType)

	assert.Equal(t, "12928701650", record.Field("nss").Text)
	assert.Equal(t, "GOMC900514HDFMRL06", record.Field("curp").Text)

	sdi := record.Field("sdi")
	assert.Equal(t, StateOK, sdi.State)
	assert.Equal(t, int64(35075), sdi.Cents)
	assert.Equal(t, "350.75", sdi.Text)

	assert.Equal(t, int64(30), record.Field("dias_cotizados").Int)
	assert.Equal(t, int64(123450), record.Field("total_cuota").Cents)
}

func TestParse_SUAFooter(t *testing.T) {
	fs := suaSchema(t)
	rs, ok := fs.Record(catalog.RecordFooter)
	require.True(t, ok)
	line := buildLine(t, rs, map[string]string{
		"tipo_registro":  "09",
		"total_detalles": "3",
		"total_cuotas":   "370350",
	})

	record := Parse(fs, 5, line, Options{At: testNow})

	require.Empty(t, record.Violations)
	assert.Equal(t, int64(3), record.Field("total_detalles").Int)
	assert.Equal(t, int64(370350), record.Field("total_cuotas").Cents)
}

func TestParse_Structural(t *testing.T) {
	fs := suaSchema(t)

	t.Run("line too short for discriminator", func(t *testing.T) {
		record := Parse(fs, 1, "0", Options{At: testNow})
		require.Len(t, record.Violations, 1)
		assert.False(t, record.Valid)
		assert.Equal(t, KindStructural, record.Violations[0].Kind)
		assert.Empty(t, record.RecordType)
		assert.Empty(t, record.Fields)
	})

	t.Run("unknown record type", func(t *testing.T) {
		record := Parse(fs, 1, "07"+strings.Repeat(" ", 118), Options{At: testNow})
		require.Len(t, record.Violations, 1)
		assert.Equal(t, KindStructural, record.Violations[0].Kind)
		assert.Equal(t, "07", record.Violations[0].Observed)
		assert.Equal(t, "07", record.RecordType)
	})

	t.Run("short line still extracts available fields", func(t *testing.T) {
		line := suaDetail(t, nil)[:44] // cut after the worker RFC
		record := Parse(fs, 3, line, Options{At: testNow})

		assert.False(t, record.Valid)
		var structural int
		for _, v := range record.Violations {
			if v.Kind == KindStructural {
				structural++
			}
		}
		assert.Equal(t, 1, structural)

		// Fields before the cut survive; those after it read as empty.
		assert.Equal(t, "12928701650", record.Field("nss").Text)
		assert.Equal(t, StateEmpty, record.Field("nombre").State)
	})

	t.Run("trailing space excess tolerated", func(t *testing.T) {
		record := Parse(fs, 2, suaDetail(t, nil)+"   ", Options{At: testNow})
		assert.True(t, record.Valid)
		assert.Empty(t, record.Violations)
	})

	t.Run("non-space excess rejected", func(t *testing.T) {
		record := Parse(fs, 2, suaDetail(t, nil)+"  X", Options{At: testNow})
		require.Len(t, record.Violations, 1)
		assert.Equal(t, KindStructural, record.Violations[0].Kind)
		assert.Equal(t, "123", record.Violations[0].Observed)
		assert.Equal(t, "120", record.Violations[0].Expected)
	})
}

func TestParse_FieldViolations(t *testing.T) {
	fs := suaSchema(t)

	cases := []struct {
		name      string
		overrides map[string]string
		field     string
		contains  string
	}{
		{
			name:      "required field empty",
			overrides: map[string]string{"nss": ""},
			field:     "nss",
			contains:  "required",
		},
		{
			name:      "enum rejects unknown code",
			overrides: map[string]string{"incidencia": "99"},
			field:     "incidencia",
			contains:  "not an allowed value",
		},
		{
			name:      "non-numeric wage",
			overrides: map[string]string{"sdi": "35.75ABCD"},
			field:     "sdi",
			contains:  "could not be read",
		},
		{
			name:      "non-numeric contributed days",
			overrides: map[string]string{"dias_cotizados": "XX"},
			field:     "dias_cotizados",
			contains:  "could not be read",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := Parse(fs, 4, suaDetail(t, tc.overrides), Options{At: testNow})
			require.Len(t, record.Violations, 1)
			v := record.Violations[0]
			assert.Equal(t, KindField, v.Kind)
			assert.Equal(t, tc.field, v.Field)
			assert.Contains(t, v.Message, tc.contains)
			assert.False(t, record.Valid)
		})
	}

	t.Run("legacy incident alias accepted", func(t *testing.T) {
		record := Parse(fs, 4, suaDetail(t, map[string]string{"incidencia": "B8"}), Options{At: testNow})
		assert.Empty(t, record.Violations)
	})

	t.Run("header pattern violation", func(t *testing.T) {
		rs, ok := fs.Record(catalog.RecordHeader)
		require.True(t, ok)
		line := buildLine(t, rs, map[string]string{
			"tipo_registro":     "01",
			"registro_patronal": "12345678901", // must start with a letter
			"rfc_patron":        "ABC680524P73",
			"periodo_pago":      "202608",
			"fecha_generacion":  "20260815",
			"razon_social":      "ACME SA DE CV",
			"folio_sua":         "42",
		})
		record := Parse(fs, 1, line, Options{At: testNow})
		require.Len(t, record.Violations, 1)
		assert.Equal(t, "registro_patronal", record.Violations[0].Field)
		assert.Contains(t, record.Violations[0].Message, "pattern")
	})
}

func TestParse_Dates(t *testing.T) {
	fs := suaSchema(t)
	rs, ok := fs.Record(catalog.RecordHeader)
	require.True(t, ok)

	header := func(fecha string) string {
		return buildLine(t, rs, map[string]string{
			"tipo_registro":     "01",
			"registro_patronal": "A1234567890",
			"rfc_patron":        "ABC680524P73",
			"periodo_pago":      "202608",
			"fecha_generacion":  fecha,
			"razon_social":      "ACME SA DE CV",
			"folio_sua":         "42",
		})
	}

	t.Run("impossible calendar date", func(t *testing.T) {
		record := Parse(fs, 1, header("20260231"), Options{At: testNow})
		require.Len(t, record.Violations, 1)
		assert.Equal(t, StateUnparsed, record.Field("fecha_generacion").State)
	})

	t.Run("leap day parses", func(t *testing.T) {
		record := Parse(fs, 1, header("20240229"), Options{At: testNow})
		assert.Empty(t, record.Violations)
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), record.Field("fecha_generacion").Date)
	})

	t.Run("year outside supported range", func(t *testing.T) {
		record := Parse(fs, 1, header("18991231"), Options{At: testNow})
		require.Len(t, record.Violations, 1)
		assert.Equal(t, StateUnparsed, record.Field("fecha_generacion").State)
	})

	t.Run("future date flagged but value kept", func(t *testing.T) {
		record := Parse(fs, 1, header("20270101"), Options{At: testNow})
		require.Len(t, record.Violations, 1)
		assert.Contains(t, record.Violations[0].Message, "future")
		got := record.Field("fecha_generacion")
		assert.Equal(t, StateOK, got.State)
		assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), got.Date)
	})

	t.Run("all zeros reads as empty required date", func(t *testing.T) {
		record := Parse(fs, 1, header("00000000"), Options{At: testNow})
		require.Len(t, record.Violations, 1)
		assert.Contains(t, record.Violations[0].Message, "required")
		assert.Equal(t, StateEmpty, record.Field("fecha_generacion").State)
	})
}

func TestParse_ZeroValues(t *testing.T) {
	fs := suaSchema(t)

	// All-zeros numeric fields are the value zero, not an absent value.
	record := Parse(fs, 2, suaDetail(t, map[string]string{
		"sdi":            "0",
		"dias_cotizados": "0",
		"total_cuota":    "0",
	}), Options{At: testNow})

	require.Empty(t, record.Violations)
	assert.Equal(t, StateOK, record.Field("sdi").State)
	assert.Equal(t, int64(0), record.Field("sdi").Cents)
	assert.Equal(t, "0.00", record.Field("sdi").Text)
	assert.Equal(t, StateOK, record.Field("dias_cotizados").State)
	assert.Equal(t, int64(0), record.Field("dias_cotizados").Int)
}

func TestParse_KeepRaw(t *testing.T) {
	fs := suaSchema(t)
	line := suaDetail(t, nil)

	with := Parse(fs, 1, line, Options{At: testNow, KeepRaw: true})
	assert.Equal(t, line, with.Raw)

	without := Parse(fs, 1, line, Options{At: testNow})
	assert.Empty(t, without.Raw)
}

func TestParse_Idempotent(t *testing.T) {
	fs := suaSchema(t)
	line := suaDetail(t, map[string]string{"incidencia": "99", "sdi": "bad money"})

	first := Parse(fs, 9, line, Options{At: testNow})
	second := Parse(fs, 9, line, Options{At: testNow})
	assert.Equal(t, first, second)
}

func TestParsedRecord_FieldMissing(t *testing.T) {
	record := ParsedRecord{Fields: map[string]FieldValue{}}
	got := record.Field("no_such_field")
	assert.Equal(t, StateEmpty, got.State)
	assert.True(t, got.Empty())
}
