package cli

import (
	"io"

	"gopkg.in/yaml.v3"
)

// printYAML renders v as a YAML document.
func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
