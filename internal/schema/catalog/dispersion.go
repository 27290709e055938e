package catalog

import (
	"valido/internal/schema"
	"valido/pkg/money"
)

// dispersionSchema is the interbank payroll dispersion layout: 98-column
// lines carrying one credit order per detail.
func dispersionSchema() *schema.FileSchema {
	return &schema.FileSchema{
		Type:               FileDispersion,
		Name:               "Payroll dispersion orders",
		Currency:           money.MXN,
		DiscriminatorStart: 1,
		DiscriminatorEnd:   2,
		TrailingFiller:     true,
		Records: []*schema.RecordSchema{
			{
				Type:       RecordHeader,
				Name:       "header",
				LineLength: 98,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordHeader}},
					{Name: "clabe_ordenante", Label: "Ordering account", Start: 3, End: 20, Type: schema.TypeCLABE, Required: true, Trim: true},
					{Name: "rfc_ordenante", Label: "Ordering party RFC", Start: 21, End: 33, Type: schema.TypeRFC, Required: true, Trim: true},
					{Name: "fecha_dispersion", Label: "Dispersion date", Start: 34, End: 41, Type: schema.TypeDate, Required: true},
					{Name: "divisa", Label: "Currency", Start: 42, End: 44, Type: schema.TypeText, Required: true, Enum: []string{"MXN", "USD"}},
					{Name: "consecutivo", Label: "File sequence number", Start: 45, End: 50, Type: schema.TypeInteger, Required: true},
					{Name: "filler", Label: "Filler", Start: 51, End: 98, Type: schema.TypeText, Trim: true},
				},
			},
			{
				Type:       RecordDetail,
				Name:       "detail",
				LineLength: 98,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordDetail}},
					{Name: "clabe_beneficiario", Label: "Beneficiary account", Start: 3, End: 20, Type: schema.TypeCLABE, Required: true, Trim: true},
					{Name: "nombre", Label: "Beneficiary name", Start: 21, End: 60, Type: schema.TypeText, Required: true, Trim: true},
					{Name: "importe", Label: "Credit amount", Start: 61, End: 69, Type: schema.TypeCurrency, Required: true},
					{Name: "referencia", Label: "Payment reference", Start: 70, End: 76, Type: schema.TypeInteger, Required: true},
					{Name: "concepto", Label: "Payment concept", Start: 77, End: 96, Type: schema.TypeText, Trim: true},
					{Name: "filler", Label: "Filler", Start: 97, End: 98, Type: schema.TypeText, Trim: true},
				},
			},
			{
				Type:       RecordFooter,
				Name:       "footer",
				LineLength: 98,
				Fields: []*schema.FieldDefinition{
					{Name: "tipo_registro", Label: "Record type", Start: 1, End: 2, Type: schema.TypeText, Required: true, Enum: []string{RecordFooter}},
					{Name: "total_abonos", Label: "Declared credit count", Start: 3, End: 8, Type: schema.TypeInteger, Required: true},
					{Name: "importe_total", Label: "Declared credit total", Start: 9, End: 23, Type: schema.TypeCurrency, Required: true},
					{Name: "filler", Label: "Filler", Start: 24, End: 98, Type: schema.TypeText, Trim: true},
				},
			},
		},
		Aggregates: []schema.AggregateSpec{
			{Name: "abono_count", Kind: schema.AggregateCount, RecordType: RecordDetail},
			{Name: "sum_importe", Kind: schema.AggregateSum, RecordType: RecordDetail, Field: "importe"},
		},
	}
}
