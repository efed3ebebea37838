package declare

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/dap2/pkg/config"
	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Document is a dataset declaration.
type Document struct {
	Name       string          `yaml:"name" json:"name" toml:"name"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty" json:"attributes,omitempty" toml:"attributes,omitempty"`
	Variables  []VariableSpec  `yaml:"variables" json:"variables" toml:"variables"`
}

// VariableSpec declares one variable. Which fields apply depends on Type.
type VariableSpec struct {
	Name string `yaml:"name" json:"name" toml:"name"`
	// Type is a DDS type name such as Int32, Array, Structure or Grid
	Type string `yaml:"type" json:"type" toml:"type"`

	// Element is the scalar element type of an Array or List
	Element string `yaml:"element,omitempty" json:"element,omitempty" toml:"element,omitempty"`
	// Template is a constructor element of an Array or List
	Template *VariableSpec  `yaml:"template,omitempty" json:"template,omitempty" toml:"template,omitempty"`
	Dims     []DimensionSpec `yaml:"dims,omitempty" json:"dims,omitempty" toml:"dims,omitempty"`

	// Members of a Structure or Sequence
	Members []VariableSpec `yaml:"members,omitempty" json:"members,omitempty" toml:"members,omitempty"`

	// Array and Maps of a Grid
	Array *VariableSpec  `yaml:"array,omitempty" json:"array,omitempty" toml:"array,omitempty"`
	Maps  []VariableSpec `yaml:"maps,omitempty" json:"maps,omitempty" toml:"maps,omitempty"`

	// Value of a scalar
	Value any `yaml:"value,omitempty" json:"value,omitempty" toml:"value,omitempty"`
	// Values of an Array or List of scalars, in row-major order
	Values []any `yaml:"values,omitempty" json:"values,omitempty" toml:"values,omitempty"`
	// Rows of a Sequence whose members are all scalars
	Rows [][]any `yaml:"rows,omitempty" json:"rows,omitempty" toml:"rows,omitempty"`

	Attributes []AttributeSpec `yaml:"attributes,omitempty" json:"attributes,omitempty" toml:"attributes,omitempty"`
}

// DimensionSpec declares an array dimension.
type DimensionSpec struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Size int    `yaml:"size" json:"size" toml:"size"`
}

// AttributeSpec declares one attribute table entry.
type AttributeSpec struct {
	Name string `yaml:"name" json:"name" toml:"name"`
	// Type is a DAS type name. Empty means String, or Container when
	// Attributes are given.
	Type   string `yaml:"type,omitempty" json:"type,omitempty" toml:"type,omitempty"`
	Values []any  `yaml:"values,omitempty" json:"values,omitempty" toml:"values,omitempty"`
	// Target of an Alias
	Target     string          `yaml:"target,omitempty" json:"target,omitempty" toml:"target,omitempty"`
	Attributes []AttributeSpec `yaml:"attributes,omitempty" json:"attributes,omitempty" toml:"attributes,omitempty"`
}

// Load reads a document file. The format follows the extension the way
// configuration files do.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is controlled by caller
	if err != nil {
		e := daperrors.Wrap(err, daperrors.ErrorTypeDataRead, "failed to read declaration").
			WithDetail("path", path)
		if errors.Is(err, fs.ErrNotExist) {
			e = e.WithCode(daperrors.CodeNoSuchFile)
		}
		return nil, e
	}
	return Parse(config.Format(path), data)
}

// Parse decodes a document in the given format: yaml, json or toml.
func Parse(format string, data []byte) (*Document, error) {
	doc := &Document{}
	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, doc)
	case "json":
		err = json.Unmarshal(data, doc)
	case "toml":
		_, err = toml.Decode(string(data), doc)
	default:
		return nil, daperrors.Newf(daperrors.ErrorTypeMalformedExpression, "unsupported declaration format %q", format)
	}
	if err != nil {
		return nil, daperrors.Wrapf(err, daperrors.ErrorTypeMalformedExpression, "failed to parse %s declaration",
			strings.ToUpper(format))
	}
	return doc, nil
}

// Marshal encodes doc in the given format.
func Marshal(doc *Document, format string) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		out, err = yaml.Marshal(doc)
	case "json":
		out, err = json.MarshalIndent(doc, "", "  ")
	case "toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(doc)
		out = buf.Bytes()
	default:
		return nil, daperrors.Newf(daperrors.ErrorTypeMalformedExpression, "unsupported declaration format %q", format)
	}
	if err != nil {
		return nil, daperrors.Wrapf(err, daperrors.ErrorTypeInternal, "failed to encode %s declaration",
			strings.ToUpper(format))
	}
	return out, nil
}
