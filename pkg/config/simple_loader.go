package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

// Load reads a configuration file into config. The format follows the
// extension: .yaml/.yml, .toml or .json. ${VAR_NAME} references are
// replaced with environment values before decoding.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return daperrors.Wrap(err, daperrors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", filePath)
	}
	return Decode(Format(filePath), data, config)
}

// Format returns the document format implied by the file extension, yaml
// when unknown.
func Format(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".toml":
		return "toml"
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// Decode substitutes environment variables in data and decodes it in the
// given format into config.
func Decode(format string, data []byte, config interface{}) error {
	content := substituteEnvVars(string(data))

	var err error
	switch format {
	case "toml":
		_, err = toml.Decode(content, config)
	case "json":
		err = json.Unmarshal([]byte(content), config)
	case "yaml", "yml":
		err = yaml.Unmarshal([]byte(content), config)
	default:
		return daperrors.Newf(daperrors.ErrorTypeConfig, "unsupported config format %q", format)
	}
	if err != nil {
		return daperrors.Wrapf(err, daperrors.ErrorTypeConfig, "failed to parse %s", strings.ToUpper(format))
	}
	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return daperrors.Wrap(err, daperrors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return daperrors.Wrap(err, daperrors.ErrorTypeConfig, "failed to write config file").
			WithDetail("path", filePath)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
