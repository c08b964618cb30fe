// Package output provides output formatting for tsqr-cli.
//
// This package handles all CLI output formatting:
//
//   - formatter.go: Formatter interface and factory
//   - table.go: Table rendering with wide mode support
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
//
// JSON and YAML output share the json struct tags of the formatted values,
// so scripts see the same field names in either format.
package output
