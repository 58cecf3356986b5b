package nodetype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	btoml "github.com/BurntSushi/toml"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ntdiff/internal/errors"
)

// Format identifies the serialization of a definition file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name ("yml" is accepted for YAML).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", errors.Newf(errors.UnsupportedFormat, "unsupported definition format %q (want toml, yaml or json)", s)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.Newf(errors.UnsupportedFormat, "cannot infer definition format of %s: no file extension", path)
	}
	return ParseFormat(ext)
}

// LoadFile reads, decodes and validates a definition file. The format is
// taken from the extension unless format is non-empty.
func LoadFile(path string, format Format) ([]NodeTypeDefinition, error) {
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return nil, err
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ParseFailed, fmt.Sprintf("cannot open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	defs, err := Decode(f, format)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Message = path + ": " + e.Message
		}
		return nil, err
	}
	return defs, nil
}

// Decode reads a definition document. Unknown keys are rejected. Decoded
// definitions are validated, and items without a declaring node type are
// attributed to the node type that lists them.
func Decode(r io.Reader, format Format) ([]NodeTypeDefinition, error) {
	var doc Document
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, decodeError(format, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return nil, decodeError(format, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return nil, decodeError(format, err)
		}
	default:
		return nil, errors.Newf(errors.UnsupportedFormat, "unsupported definition format %q", format)
	}

	if err := Validate(doc.NodeTypes); err != nil {
		return nil, err
	}

	defs := make([]NodeTypeDefinition, len(doc.NodeTypes))
	for i, def := range doc.NodeTypes {
		defs[i] = withDeclaringType(def)
	}
	return defs, nil
}

func decodeError(format Format, err error) error {
	var detail string
	if de, ok := err.(*toml.DecodeError); ok {
		row, col := de.Position()
		detail = fmt.Sprintf("line %d, column %d", row, col)
	}
	e := errors.New(errors.ParseFailed, fmt.Sprintf("cannot decode %s definitions", format), err)
	if detail != "" {
		e = e.WithDetails(detail)
	}
	return e
}

// Encode writes definitions as a document in the given format.
func Encode(w io.Writer, defs []NodeTypeDefinition, format Format) error {
	doc := Document{NodeTypes: defs}
	switch format {
	case FormatTOML:
		enc := btoml.NewEncoder(w)
		enc.Indent = "  "
		if err := enc.Encode(doc); err != nil {
			return errors.New(errors.InternalError, "cannot encode TOML", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.New(errors.InternalError, "cannot encode YAML", err)
		}
		if err := enc.Close(); err != nil {
			return errors.New(errors.InternalError, "cannot encode YAML", err)
		}
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return errors.New(errors.InternalError, "cannot encode JSON", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	default:
		return errors.Newf(errors.UnsupportedFormat, "unsupported definition format %q", format)
	}
	return nil
}

// Canonical renders a single definition as TOML with its item collections
// sorted by name, so that two renderings differ only where the definitions do.
func Canonical(def NodeTypeDefinition) (string, error) {
	sorted := def
	sorted.Properties = append([]PropertyDefinition(nil), def.Properties...)
	sorted.ChildNodes = append([]ChildNodeDefinition(nil), def.ChildNodes...)
	sortItems(sorted.Properties, func(p PropertyDefinition) string { return p.Name })
	sortItems(sorted.ChildNodes, func(c ChildNodeDefinition) string { return c.Name })

	var buf bytes.Buffer
	if err := Encode(&buf, []NodeTypeDefinition{sorted}, FormatTOML); err != nil {
		return "", err
	}
	return buf.String(), nil
}
