package patterns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

// File is the on-disk pattern definition. JSON files are accepted as well
// since JSON is valid YAML.
//
//	version: 1
//	patterns:
//	  status: 'HTTP/[0-9][.][0-9]'
//	  uuid: '[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}'
//	names: [status, uuid, int, spaces]
type File struct {
	Version  int               `yaml:"version" json:"version"`
	Patterns map[string]string `yaml:"patterns" json:"patterns"`
	Names    []string          `yaml:"names,omitempty" json:"names,omitempty"`
}

// LoadFile reads a pattern file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.New(apperrors.ErrCodeFileNotFound,
				fmt.Sprintf("pattern file not found: %s", path), err)
		}
		return nil, apperrors.IOError(fmt.Sprintf("cannot read pattern file %s", path), err)
	}
	return ParseFile(data)
}

// ParseFile decodes a pattern file.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "invalid pattern file", err)
	}
	if f.Version == 0 {
		f.Version = 1
	}
	if f.Version != 1 {
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unsupported pattern file version %d", f.Version), nil)
	}
	return &f, nil
}

// Env compiles the patterns of the file. Built-in patterns remain available
// by name.
func (f *File) Env(opts ...Option) (*Env, error) {
	regexps := Catalog()
	for k, v := range f.Patterns {
		regexps[k] = v
	}
	names := f.Names
	if len(names) == 0 {
		for k := range f.Patterns {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		names = DefaultNames
	}
	return NewEnv(regexps, names, opts...)
}
