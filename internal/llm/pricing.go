package llm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Price is the USD cost per million tokens.
type Price struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// PriceTable maps a model name to its price.
type PriceTable map[string]Price

// DefaultPrices covers the models the service is expected to run against.
var DefaultPrices = PriceTable{
	"claude-sonnet-4-20250514":   {Input: 3, Output: 15},
	"claude-3-5-sonnet-20241022": {Input: 3, Output: 15},
	"claude-3-5-haiku-20241022":  {Input: 0.8, Output: 4},
	"claude-3-haiku-20240307":    {Input: 0.25, Output: 1.25},
	"claude-opus-4-20250514":     {Input: 15, Output: 75},
}

type pricingFile struct {
	Models PriceTable `yaml:"models"`
}

// LoadPrices returns DefaultPrices overlaid with the entries of the YAML file
// at path. An empty path returns the defaults.
//
//	models:
//	  claude-sonnet-4-20250514:
//	    input: 3
//	    output: 15
func LoadPrices(path string) (PriceTable, error) {
	table := make(PriceTable, len(DefaultPrices))
	for model, price := range DefaultPrices {
		table[model] = price
	}
	if strings.TrimSpace(path) == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	var file pricingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}
	for model, price := range file.Models {
		if price.Input < 0 || price.Output < 0 {
			return nil, fmt.Errorf("pricing for %s must not be negative", model)
		}
		table[model] = price
	}
	return table, nil
}

// Cost estimates the USD cost of a call. Unknown models cost 0.
func (t PriceTable) Cost(model string, inputTokens, outputTokens int) float64 {
	price, ok := t[model]
	if !ok {
		return 0
	}
	return (float64(inputTokens)*price.Input + float64(outputTokens)*price.Output) / 1_000_000
}
