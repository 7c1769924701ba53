// Package cli provides the interactive recipe book command-line client.
//
// It wires configuration and the REST API client into a REPL. Typical flow:
// login (or register), then list, show, add, delete and upload recipes, and
// browse tags and ingredients. Results are printed as YAML.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
