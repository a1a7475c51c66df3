package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ModelFormat selects the attach encoding an import produces.
type ModelFormat int

const (
	ModelFormatBasic ModelFormat = iota
	ModelFormatBasicDX
	ModelFormatChunk
	ModelFormatGC
)

var modelFormatNames = map[ModelFormat]string{
	ModelFormatBasic:   "basic",
	ModelFormatBasicDX: "basicdx",
	ModelFormatChunk:   "chunk",
	ModelFormatGC:      "gc",
}

func (f ModelFormat) String() string {
	if name, ok := modelFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

func ModelFormats() []ModelFormat {
	return []ModelFormat{ModelFormatBasic, ModelFormatBasicDX, ModelFormatChunk, ModelFormatGC}
}

func ParseModelFormat(s string) (ModelFormat, error) {
	for f, name := range modelFormatNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return ModelFormatBasic, errors.Errorf("unknown model format %q", s)
}

func (f ModelFormat) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

func (f *ModelFormat) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseModelFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
