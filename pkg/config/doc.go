// Package config loads versioned YAML documents.
//
// A [Loader] validates a document against its JSON schema, decodes it into
// a [v1beta1.Object] and applies defaults. Errors are [*yaml.Error] values
// annotated with the offending source lines.
package config
