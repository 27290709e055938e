// Package catalog holds the declarative schema tables for the supported
// regulated file types. Layouts follow the published record formats: the
// IMSS payroll contribution file (SUA), the interbank payroll dispersion
// file, and the SAT withholding declaration file.
package catalog

import (
	"fmt"
	"sort"

	"valido/internal/schema"
)

// Record type discriminators shared by all supported layouts.
const (
	RecordHeader = "01"
	RecordDetail = "02"
	RecordFooter = "09"
)

// File type codes.
const (
	FileSUA         = "sua"
	FileDispersion  = "dispersion"
	FileRetenciones = "retenciones"
)

// Catalog is the validated, immutable set of file schemas. Build once at
// startup; safe for concurrent readers.
type Catalog struct {
	byType map[string]*schema.FileSchema
}

// Option adjusts catalog construction.
type Option func(*schema.FileSchema)

// StrictLength turns off trailing-filler tolerance so overlong lines are
// structural violations on every layout.
func StrictLength() Option {
	return func(fs *schema.FileSchema) { fs.TrailingFiller = false }
}

// New builds and validates every file schema. An error here is a
// configuration bug and should abort startup.
func New(opts ...Option) (*Catalog, error) {
	schemas := []*schema.FileSchema{
		suaSchema(),
		dispersionSchema(),
		retencionesSchema(),
	}
	for _, fs := range schemas {
		for _, opt := range opts {
			opt(fs)
		}
	}

	byType := make(map[string]*schema.FileSchema, len(schemas))
	for _, fs := range schemas {
		if err := fs.Validate(); err != nil {
			return nil, fmt.Errorf("schema catalog: %w", err)
		}
		byType[fs.Type] = fs
	}
	return &Catalog{byType: byType}, nil
}

// File returns the schema for a file type code.
func (c *Catalog) File(fileType string) (*schema.FileSchema, bool) {
	fs, ok := c.byType[fileType]
	return fs, ok
}

// Types lists the supported file type codes in stable order.
func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.byType))
	for t := range c.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
