package catalog

import (
	"valido/internal/schema"
	"valido/pkg/money"
)

// conceptoCodes are the withholding concept classes.
var conceptoCodes = []string{"01", "02", "03", "06", "14", "25"}

// retencionesSchema is the SAT withholding declaration layout: 77-column
// lines, one detail per withheld taxpayer.
func retencionesSchema() *schema.FileSchema {
	return &schema.FileSchema{
		Type:               FileRetenciones,
		Name:               "SAT withholding declaration",
		Currency:           money.MXN,
		DiscriminatorStart: 1,
		DiscriminatorEnd:   2,
		TrailingFiller:     true,
		Records: []*schema.RecordSchema{
			{
				Type:       RecordHeader,
				Name:       "header",
				LineLength: 77,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordHeader}},
					{Name: "rfc_retenedor", Label: "Withholder RFC", Start: 3, End: 15, Type: schema.TypeRFC, Required: true, Trim: true},
					{Name: "ejercicio", Label: "Fiscal year", Start: 16, End: 19, Type: schema.TypeInteger, Required: true, Pattern: `20[0-9]{2}`},
					{Name: "periodo", Label: "Period (month)", Start: 20, End: 21, Type: schema.TypeInteger, Required: true},
					{Name: "fecha_presentacion", Label: "Filing date", Start: 22, End: 29, Type: schema.TypeDate, Required: true, NoFuture: true},
					{Name: "filler", Label: "Filler", Start: 30, End: 77, Type: schema.TypeText, Trim: true},
				},
			},
			{
				Type:       RecordDetail,
				Name:       "detail",
				LineLength: 77,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordDetail}},
					{Name: "rfc_contribuyente", Label: "Taxpayer RFC", Start: 3, End: 15, Type: schema.TypeRFC, Required: true, Trim: true},
					{Name: "curp", Label: "CURP", Start: 16, End: 33, Type: schema.TypeCURP, Trim: true},
					{Name: "base_gravable", Label: "Taxable base", Start: 34, End: 44, Type: schema.TypeCurrency, Required: true},
					{Name: "impuesto_retenido", Label: "Withheld tax", Start: 45, End: 55, Type: schema.TypeCurrency, Required: true},
					{Name: "clave_concepto", Label: "Concept code", Start: 56, End: 57, Type: schema.TypeText, Required: true, Enum: conceptoCodes},
					{Name: "filler", Label: "Filler", Start: 58, End: 77, Type: schema.TypeText, Trim: true},
				},
			},
			{
				Type:       RecordFooter,
				Name:       "footer",
				LineLength: 77,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordFooter}},
					{Name: "total_registros", Label: "Declared detail count", Start: 3, End: 8, Type: schema.TypeInteger, Required: true},
					{Name: "total_retenido", Label: "Declared withheld total", Start: 9, End: 23, Type: schema.TypeCurrency, Required: true},
					{Name: "filler", Label: "Filler", Start: 24, End: 77, Type: schema.TypeText, Trim: true},
				},
			},
		},
		Aggregates: []schema.AggregateSpec{
			{Name: "detail_count", Kind: schema.AggregateCount, RecordType: RecordDetail},
			{Name: "sum_retenido", Kind: schema.AggregateSum, RecordType: RecordDetail, Field: "impuesto_retenido"},
		},
	}
}
