package catalog

import (
	"valido/internal/schema"
	"valido/pkg/money"
)

// incidenciaCodes are the IMSS absence/incapacity codes accepted on detail
// lines. "08" and "B8" name the same incident class: B8 is the legacy alias
// some employer systems still emit, kept until the rule owner retires it.
var incidenciaCodes = []string{"00", "01", "02", "03", "04", "05", "06", "07", "08", "B8"}

// movimientoCodes are the affiliation movement types.
var movimientoCodes = []string{"02", "07", "08", "11", "12"}

// suaSchema is the IMSS payroll contribution layout: 120-column lines,
// one header, one detail per insured worker, one totals footer.
func suaSchema() *schema.FileSchema {
	return &schema.FileSchema{
		Type:               FileSUA,
		Name:               "IMSS payroll contribution (SUA)",
		Currency:           money.MXN,
		DiscriminatorStart: 1,
		DiscriminatorEnd:   2,
		TrailingFiller:     true,
		Records: []*schema.RecordSchema{
			{
				Type:       RecordHeader,
				Name:       "header",
				LineLength: 120,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordHeader}},
					{Name: "registro_patronal", Label: "Employer registry number", Start: 3, End: 13, Type: schema.TypeText, Required: true, Pattern: `[A-Z][0-9]{10}`},
					{Name: "rfc_patron", Label: "Employer RFC", Start: 14, End: 26, Type: schema.TypeRFC, Required: true, Trim: true},
					{Name: "periodo_pago", Label: "Contribution period (YYYYMM)", Start: 27, End: 32, Type: schema.TypeInteger, Required: true, Pattern: `[0-9]{6}`},
					{Name: "fecha_generacion", Label: "Generation date", Start: 33, End: 40, Type: schema.TypeDate, Required: true, NoFuture: true},
					{Name: "razon_social", Label: "Employer name", Start: 41, End: 90, Type: schema.TypeText, Required: true, Trim: true},
					{Name: "folio_sua", Label: "SUA folio", Start: 91, End: 96, Type: schema.TypeInteger, Required: true},
					{Name: "filler", Label: "Filler", Start: 97, End: 120, Type: schema.TypeText, Trim: true},
				},
			},
			{
				Type:       RecordDetail,
				Name:       "detail",
				LineLength: 120,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordDetail}},
					{Name: "nss", Label: "Social security number", Start: 3, End: 13, Type: schema.TypeNSS, Required: true, Trim: true},
					{Name: "curp", Label: "CURP", Start: 14, End: 31, Type: schema.TypeCURP, Trim: true},
					{Name: "rfc", Label: "Worker RFC", Start: 32, End: 44, Type: schema.TypeRFC, Trim: true},
					{Name: "nombre", Label: "Worker name", Start: 45, End: 94, Type: schema.TypeText, Required: true, Trim: true},
					{Name: "sdi", Label: "Integrated daily wage", Start: 95, End: 103, Type: schema.TypeCurrency, Required: true},
					{Name: "dias_cotizados", Label: "Contributed days", Start: 104, End: 105, Type: schema.TypeInteger, Required: true},
					{Name: "incidencia", Label: "Incident code", Start: 106, End: 107, Type: schema.TypeText, Enum: incidenciaCodes},
					{Name: "total_cuota", Label: "Total contribution", Start: 108, End: 116, Type: schema.TypeCurrency, Required: true},
					{Name: "movimiento", Label: "Movement type", Start: 117, End: 118, Type: schema.TypeText, Enum: movimientoCodes},
					{Name: "filler", Label: "Filler", Start: 119, End: 120, Type: schema.TypeText, Trim: true},
				},
			},
			{
				Type:       RecordFooter,
				Name:       "footer",
				LineLength: 120,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordFooter}},
					{Name: "total_detalles", Label: "Declared detail count", Start: 3, End: 9, Type: schema.TypeInteger, Required: true},
					{Name: "total_cuotas", Label: "Declared contribution total", Start: 10, End: 24, Type: schema.TypeCurrency, Required: true},
					{Name: "filler", Label: "Filler", Start: 25, End: 120, Type: schema.TypeText, Trim: true},
				},
			},
		},
		Aggregates: []schema.AggregateSpec{
			{Name: "detail_count", Kind: schema.AggregateCount, RecordType: RecordDetail},
			{Name: "sum_total_cuota", Kind: schema.AggregateSum, RecordType: RecordDetail, Field: "total_cuota"},
		},
	}
}
