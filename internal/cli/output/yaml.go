package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/knadh/koanf/parsers/yaml"
)

// YAMLFormatter formats data as YAML. Field names follow the json tags, so
// the YAML and JSON views of a value agree.
type YAMLFormatter struct{}

// Format formats data as YAML. Values that are not objects are wrapped
// under "items".
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("output: marshal: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("output: marshal: %w", err)
	}
	m, ok := generic.(map[string]any)
	if !ok {
		m = map[string]any{"items": generic}
	}
	out, err := yaml.Parser().Marshal(m)
	if err != nil {
		return fmt.Errorf("output: yaml: %w", err)
	}
	_, err = w.Write(out)
	return err
}
