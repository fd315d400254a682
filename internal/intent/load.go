package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a rule table from a YAML document of the form:
//
//	rules:
//	  - kind: web_search
//	    priority: 110
//	    argument: text
//	    triggers: [search, look up]
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent rules: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse intent rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("%w: rule file has no rules", ErrInvalidRule)
	}
	return f.Rules, nil
}

// NewDetectorFromConfig uses the YAML table at path, or DefaultRules when
// path is empty.
func NewDetectorFromConfig(path string) (*Detector, error) {
	if path == "" {
		return NewDetector(DefaultRules())
	}
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return NewDetector(rules)
}
