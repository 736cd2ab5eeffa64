package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"braces.dev/errtrace"
	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ghettovoice/sinkuri/internal/errorutil"
	"github.com/ghettovoice/sinkuri/internal/util"
)

// Format is a document format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	// FormatJSON is JSON with optional comments and trailing commas.
	FormatJSON Format = "json"
)

// FormatOf returns the document format matching the file extension of path.
func FormatOf(path string) (Format, error) {
	switch util.LCase(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	default:
		return "", errtrace.Wrap(errorutil.NewWrapperError(ErrUnsupportedFormat, "file extension %q", filepath.Ext(path)))
	}
}

// LoadFile reads and decodes the document at path, the format is picked from the file extension.
func LoadFile(path string, opts *LoadOptions) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	opts.logger().Debug("loading config", "path", path, "format", format)
	doc, err := Decode(data, format, opts)
	if err != nil {
		return nil, errtrace.Wrap(errorutil.JoinPrefix(path, err))
	}
	return doc, nil
}

// Decode decodes the document from data in the given format.
// Endpoints are parsed while decoding, invalid ones are reported with the field path.
func Decode(data []byte, format Format, opts *LoadOptions) (*Document, error) {
	var (
		raw map[string]any
		err error
	)
	switch Format(util.LCase(string(format))) {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		err = dec.Decode(&raw)
	default:
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnsupportedFormat, "%q", format))
	}
	if err != nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidConfig, err))
	}
	return errtrace.Wrap2(DecodeMap(raw, opts))
}

// DecodeMap decodes the document from a generic map, as produced by YAML, TOML or JSON decoders.
func DecodeMap(raw map[string]any, opts *LoadOptions) (*Document, error) {
	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.TextUnmarshallerHookFunc(),
		ErrorUnused: !opts.allowUnknown(),
		TagName:     "mapstructure",
		Result:      &doc,
	})
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidConfig, err))
	}

	opts.logger().Debug("config decoded", "sinks", len(doc.Sinks))
	return &doc, nil
}

// Encode encodes the document into the given format.
// Credentials stay embedded into endpoints as they were configured.
func Encode(doc *Document, format Format) ([]byte, error) {
	if doc == nil {
		return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError("nil document"))
	}
	var (
		buf bytes.Buffer
		err error
	)
	switch Format(util.LCase(string(format))) {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		err = toml.NewEncoder(&buf).Encode(doc)
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		err = enc.Encode(doc)
	default:
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnsupportedFormat, "%q", format))
	}
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return bytes.TrimRight(buf.Bytes(), "\r\n"), nil
}
