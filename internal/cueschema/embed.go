// Package cueschema provides the embedded CUE structural schema for
// process definition files and a Validate entry point. The *.cue
// sources are bundled with the binary and compiled once.
package cueschema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSrc string

var (
	once       sync.Once
	schemaVal  cue.Value
	compileErr error
)

func compiled() (cue.Value, error) {
	once.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaSrc)
		if err := v.Err(); err != nil {
			compileErr = fmt.Errorf("cueschema: compile embedded schema: %w", err)
			return
		}
		schemaVal = v.LookupPath(cue.ParsePath("#ProcessDef"))
		if !schemaVal.Exists() {
			compileErr = fmt.Errorf("cueschema: #ProcessDef definition not found in embedded schema")
		}
	})
	return schemaVal, compileErr
}

// Validate checks raw process definition bytes (YAML) against the
// embedded structural schema. It reports only shape errors (wrong types,
// missing required fields, an unrecognized guard "type"); semantic
// validation (internal/validate) still runs afterward.
func Validate(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}
	if err := cueyaml.Validate(data, schema); err != nil {
		return fmt.Errorf("cueschema: structural validation failed: %w", err)
	}
	return nil
}
