// Package fdicdata implements the FDIC BankFind data pipeline:
// download, parse with metadata embedding, summarize, cleanup.
package fdicdata

// Dataset describes one BankFind dataset handled by the pipeline.
type Dataset struct {
	// Name keys the raw and processed file names.
	Name string

	// Endpoint under the BankFind API base.
	Endpoint string

	// SchemaFile is the YAML field-definition document published for
	// the endpoint.
	SchemaFile string

	// DateFields are delivered as M/D/YYYY strings and stored as
	// dates regardless of the declared type.
	DateFields []string

	// Summary presentation hints.
	DateColumn string
	YearColumn string
	TopColumns []string
}

// Datasets are the two BankFind datasets the pipeline targets.
var Datasets = []Dataset{
	{
		Name:       "institutions",
		Endpoint:   "institutions",
		SchemaFile: "institution_properties.yaml",
		TopColumns: []string{"ACTIVE", "STNAME", "BKCLASS"},
	},
	{
		Name:       "failures",
		Endpoint:   "failures",
		SchemaFile: "failure_properties.yaml",
		DateFields: []string{"FAILDATE", "RESDATE", "BRDATE", "PTRDATE"},
		DateColumn: "FAILDATE",
		YearColumn: "FAILYR",
		TopColumns: []string{"PSTALP"},
	},
}
