// Command schemagen writes the JSON schema of a rulecat document type.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/macropower/rulecat/api/v1beta1/configs"
	"github.com/macropower/rulecat/api/v1beta1/rulesets"
)

var (
	outFile = flag.String("o", "schema.json", "Output file for the generated schema")
	docType = flag.String("type", "config", "Document type, one of: config, ruleset")
)

var types = map[string]func() any{
	"config":  func() any { return configs.New() },
	"ruleset": func() any { return rulesets.New() },
}

func main() {
	flag.Parse()

	newDoc, ok := types[*docType]
	if !ok {
		log.Fatalf("unknown type %q", *docType)
	}

	jsData, err := generate(newDoc())
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(*outFile, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}

func generate(v any) ([]byte, error) {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
		ExpandedStruct:             true,
		Namer: func(t reflect.Type) string {
			return t.Name()
		},
	}

	js := r.Reflect(v)

	b, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(b, '\n'), nil
}
