package metadata

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
)

// Metadata maps canonical metadata keys (prefix stripped, lowercased) to
// the literal values declared in a plugin's marker file. An empty map is a
// valid result: it means the file declared nothing recognizable.
type Metadata map[string]interface{}

// Extractor pulls declared plugin metadata out of Go source files by
// parsing them into a syntax tree. Source is never compiled, linked, or
// executed; only restricted literal expressions are evaluated.
type Extractor struct {
	debug bool
}

// NewExtractor creates a new metadata extractor
func NewExtractor(debug bool) *Extractor {
	return &Extractor{debug: debug}
}

// ExtractFile parses a single source file and returns the metadata it
// declares. A file that fails to parse returns an error; a binding whose
// value is not a plain literal is logged and omitted without aborting the
// rest of the extraction. The first declaration of a given key wins.
func (e *Extractor) ExtractFile(path string) (Metadata, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	data := make(Metadata)
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || (gen.Tok != token.VAR && gen.Tok != token.CONST) {
			continue
		}

		for _, spec := range gen.Specs {
			value, ok := spec.(*ast.ValueSpec)
			if !ok || len(value.Names) != 1 || len(value.Values) != 1 {
				continue
			}

			name := value.Names[0].Name
			if !IsKnownKey(name) {
				continue
			}

			key := CanonicalKey(name)
			if _, seen := data[key]; seen {
				// First declaration wins
				continue
			}

			evaluated, err := evalLiteral(value.Values[0])
			if err != nil {
				if e.debug {
					fmt.Printf("[Extractor] Cannot evaluate %s in %s: %v\n", name, path, err)
				}
				continue
			}

			data[key] = evaluated
		}
	}

	return data, nil
}
