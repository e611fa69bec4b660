package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// source resolves a setting from the environment first and the optional
// CONFIG_FILE second.
type source struct {
	file map[string]string
}

func newSource() (source, error) {
	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		return source{}, nil
	}
	file, err := loadFile(path)
	if err != nil {
		return source{}, err
	}
	return source{file: file}, nil
}

func (s source) get(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(s.file[key])
}

// loadFile reads a YAML document and flattens it into env-style keys:
//
//	http_addr: ":9090"   -> HTTP_ADDR
//	chart:
//	  width: 1200        -> CHART_WIDTH
func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("CONFIG_FILE %q: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("CONFIG_FILE %q: %w", path, err)
	}
	out := make(map[string]string)
	if err := flatten("", doc, out); err != nil {
		return nil, fmt.Errorf("CONFIG_FILE %q: %w", path, err)
	}
	return out, nil
}

func flatten(prefix string, doc map[string]any, out map[string]string) error {
	for k, v := range doc {
		key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(k), "-", "_"))
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch t := v.(type) {
		case map[string]any:
			if err := flatten(key, t, out); err != nil {
				return err
			}
		case []any:
			return fmt.Errorf("key %q: lists are not supported", key)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(t)
		}
	}
	return nil
}
