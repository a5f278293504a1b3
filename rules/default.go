package rules

import (
	"embed"
	"fmt"
)

// DefaultRuleSet is the name of the embedded rule table.
const DefaultRuleSet = "default"

//go:embed *.yaml
var Embedded embed.FS

// Default returns an engine with the embedded rule table loaded, along with any additional
// rulesets, and compiled. Additional rulesets always follow the embedded table.
func Default(extra ...RuleSet) (*Engine, error) {
	e := New()

	if err := e.LoadFS(Embedded); err != nil {
		return nil, err
	}

	for _, rs := range extra {
		if _, found := e.RuleSets[rs.Name]; found {
			return nil, fmt.Errorf("ruleset decode: duplicate ruleset: %s", rs.Name)
		}

		if !dependsOn(rs, DefaultRuleSet) {
			rs.DependsOn = append([]string{DefaultRuleSet}, rs.DependsOn...)
		}

		e.RuleSets[rs.Name] = rs
	}

	if err := e.CompileRules(); err != nil {
		return nil, err
	}

	return e, nil
}

func dependsOn(rs RuleSet, name string) bool {
	for _, d := range rs.DependsOn {
		if d == name {
			return true
		}
	}

	return false
}
