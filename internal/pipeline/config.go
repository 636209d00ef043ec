package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"medwarehouse/pkg/config"
	"medwarehouse/pkg/logging"
)

// DefaultCategory is the terminal fallback when no classification rule
// matches a channel handle.
const DefaultCategory = "general"

// Config carries the tunable boundaries of a warehouse build: the calendar
// range of the date dimension and the ordered channel classification rules.
type Config struct {
	DateStart       time.Time
	DateEnd         time.Time
	Rules           []Rule
	DefaultCategory string
}

// DefaultRules classify the medical-retail channels this warehouse was
// built around.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "pharma", Category: "pharmacy"},
		{Pattern: "cosmet", Category: "cosmetics"},
		{Pattern: "med", Category: "medical"},
		{Pattern: "clinic", Category: "medical"},
		{Pattern: "health", Category: "medical"},
	}
}

type rulesFile struct {
	Rules           []Rule `yaml:"rules"`
	DefaultCategory string `yaml:"default_category"`
}

// LoadConfig assembles the pipeline configuration from the environment,
// reading the optional CHANNEL_RULES_FILE when one is configured.
func LoadConfig(logger logging.Logger) (Config, error) {
	cfg := Config{
		DateStart:       config.GetEnvDate("WAREHOUSE_DATE_START", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		DateEnd:         config.GetEnvDate("WAREHOUSE_DATE_END", time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)),
		Rules:           DefaultRules(),
		DefaultCategory: DefaultCategory,
	}
	if cfg.DateEnd.Before(cfg.DateStart) {
		return Config{}, fmt.Errorf("warehouse date range is inverted: start %s, end %s",
			cfg.DateStart.Format("2006-01-02"), cfg.DateEnd.Format("2006-01-02"))
	}

	if path := config.GetEnv("CHANNEL_RULES_FILE", ""); path != "" {
		rules, defaultCategory, err := LoadRulesFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Rules = rules
		if defaultCategory != "" {
			cfg.DefaultCategory = defaultCategory
		}
		logger.WithFields(logging.Fields{
			"file":  path,
			"rules": len(rules),
		}).Info("Loaded channel classification rules")
	}
	return cfg, nil
}

// LoadRulesFile parses an ordered classification rule list from YAML.
func LoadRulesFile(path string) ([]Rule, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read rules file: %w", err)
	}
	var parsed rulesFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, "", fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(parsed.Rules) == 0 {
		return nil, "", fmt.Errorf("rules file %s contains no rules", path)
	}
	for i, rule := range parsed.Rules {
		if rule.Pattern == "" || rule.Category == "" {
			return nil, "", fmt.Errorf("rules file %s: rule %d is missing a pattern or category", path, i)
		}
	}
	return parsed.Rules, parsed.DefaultCategory, nil
}
