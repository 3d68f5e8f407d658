package controller

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk shape of a trading policy.
//
// Example:
//
//	risk_gating: true
//	max_risk_pct: 2
//	quote_asset: USDT
//	exec_timeout: 15s
type policyFile struct {
	RiskGating  bool    `yaml:"risk_gating"`
	MaxRiskPct  float64 `yaml:"max_risk_pct"`
	QuoteAsset  string  `yaml:"quote_asset"`
	ExecTimeout string  `yaml:"exec_timeout"`
}

// LoadPolicy reads a trading policy from a yaml file. An empty path returns
// the default policy.
func LoadPolicy(path string) (Policy, error) {
	var p Policy
	if path == "" {
		p.Normalize()
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}

	p = Policy{
		RiskGating: f.RiskGating,
		MaxRiskPct: f.MaxRiskPct,
		QuoteAsset: f.QuoteAsset,
	}
	if f.ExecTimeout != "" {
		d, err := time.ParseDuration(f.ExecTimeout)
		if err != nil {
			return Policy{}, fmt.Errorf("parse exec_timeout: %w", err)
		}
		p.ExecTimeout = d
	}
	p.Normalize()
	return p, nil
}
