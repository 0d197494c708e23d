package validate

import (
	"fmt"
	"regexp"
)

// Rules holds the corpus validation thresholds
type Rules struct {
	MinUtterances      int    `yaml:"min_utterances" mapstructure:"min_utterances"`
	MaxUtteranceLength int    `yaml:"max_utterance_length" mapstructure:"max_utterance_length"`
	IntentPattern      string `yaml:"intent_pattern" mapstructure:"intent_pattern"`
	NoneIntent         string `yaml:"none_intent" mapstructure:"none_intent"` // Exempt from naming and size rules
}

// DefaultRules returns the built-in rules
func DefaultRules() Rules {
	return Rules{
		MinUtterances:      3,
		MaxUtteranceLength: 500,
		IntentPattern:      `^[a-z]+(\.[a-z_]+)*$`,
		NoneIntent:         "None",
	}
}

// compile prepares the intent naming pattern
func (r Rules) compile() (*regexp.Regexp, error) {
	if r.IntentPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(r.IntentPattern)
	if err != nil {
		return nil, fmt.Errorf("compile intent pattern: %w", err)
	}
	return re, nil
}
