package config

import (
	"github.com/mitchellh/mapstructure"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// HTTPNodeConfig is the typed decode of an http-kind node's free-form
// Config map.
type HTTPNodeConfig struct {
	URL    string `mapstructure:"url"`
	Method string `mapstructure:"method"`
}

// ScriptNodeConfig is the typed decode of a script-kind node's free-form
// Config map.
type ScriptNodeConfig struct {
	Code string `mapstructure:"code"`
}

// DecodeHTTPNodeConfig mirrors hector's config decode layer: a raw
// map[string]any decoded into a typed struct via mapstructure (spec.md
// §4.13).
func DecodeHTTPNodeConfig(raw map[string]any) (HTTPNodeConfig, error) {
	var out HTTPNodeConfig
	if err := mapstructure.Decode(raw, &out); err != nil {
		return HTTPNodeConfig{}, valueobjects.Wrap(valueobjects.ErrValidation, err)
	}
	return out, nil
}

// DecodeScriptNodeConfig decodes a script-kind node's Config map.
func DecodeScriptNodeConfig(raw map[string]any) (ScriptNodeConfig, error) {
	var out ScriptNodeConfig
	if err := mapstructure.Decode(raw, &out); err != nil {
		return ScriptNodeConfig{}, valueobjects.Wrap(valueobjects.ErrValidation, err)
	}
	return out, nil
}
