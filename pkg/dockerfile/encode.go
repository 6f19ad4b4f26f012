// SPDX-License-Identifier: MPL-2.0

package dockerfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mayhemheroes/modus/pkg/buildplan"
)

// Plan document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnsupportedFormat is returned by Encode for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported plan format")

type (
	// Format is a plan document encoding.
	Format string

	document struct {
		Stages  []*buildplan.Stage `json:"stages" yaml:"stages" toml:"stages"`
		Levels  [][]string         `json:"levels" yaml:"levels" toml:"levels"`
		Outputs []buildplan.Output `json:"outputs" yaml:"outputs" toml:"outputs"`
	}
)

// Formats returns the supported document formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTOML}
}

// IsValid reports whether f is a supported document format.
func (f Format) IsValid() bool {
	return slices.Contains(Formats(), f)
}

// Encode writes plan as a document listing stages, levels and outputs.
func Encode(w io.Writer, plan *buildplan.Plan, f Format) error {
	doc := document{Stages: plan.Stages, Levels: plan.Levels(), Outputs: plan.Outputs}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}
