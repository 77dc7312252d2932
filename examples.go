package fmtemplate

import (
	"embed"
	"io/fs"
)

//go:embed examples/catalog
var embeddedExamples embed.FS

// ExampleFS exposes the bundled catalog example: a schema under
// schema.json, its templates under templates/ and sample documents under
// docs/.
func ExampleFS() fs.FS {
	sub, err := fs.Sub(embeddedExamples, "examples/catalog")
	if err != nil {
		return embeddedExamples
	}
	return sub
}
