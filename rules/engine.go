package rules

import (
	"errors"
	"fmt"
	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/shimmeringbee/zhap/catalog"
	"gopkg.in/yaml.v3"
	"io"
	"io/fs"
	"sort"
	"strings"
)

// Groups holds the presence flag of every capability group on an endpoint.
type Groups struct {
	Climate       bool
	Covering      bool
	Barrier       bool
	Lock          bool
	Color         bool
	Dimmer        bool
	OnOff         bool
	Siren         bool
	NumericSensor bool
	Notification  bool
	BinarySensor  bool
	Scene         bool
	Battery       bool
}

// Set raises the flag for a group.
func (g *Groups) Set(group catalog.Group) {
	switch group {
	case catalog.GroupClimate:
		g.Climate = true
	case catalog.GroupCovering:
		g.Covering = true
	case catalog.GroupBarrier:
		g.Barrier = true
	case catalog.GroupLock:
		g.Lock = true
	case catalog.GroupColor:
		g.Color = true
	case catalog.GroupDimmer:
		g.Dimmer = true
	case catalog.GroupOnOff:
		g.OnOff = true
	case catalog.GroupSiren:
		g.Siren = true
	case catalog.GroupNumericSensor:
		g.NumericSensor = true
	case catalog.GroupNotification:
		g.Notification = true
	case catalog.GroupBinarySensor:
		g.BinarySensor = true
	case catalog.GroupScene:
		g.Scene = true
	case catalog.GroupBattery:
		g.Battery = true
	}
}

// Input is the environment rule filters are evaluated against, one per endpoint.
type Input struct {
	Endpoint uint16
	Root     bool
	Has      Groups
	// BinarySensorTypes are the properties of the legacy binary sensor points on the endpoint.
	BinarySensorTypes []string
	// Notification are the sensor features the endpoint's notification points match.
	Notification []string
}

type Rule struct {
	Description  string   `yaml:"description"`
	Filter       string   `yaml:"filter"`
	Feature      string   `yaml:"feature"`
	Group        string   `yaml:"group"`
	SuppressedBy []string `yaml:"suppressedBy"`
	Settings     Settings `yaml:"settings"`
	Children     []Rule   `yaml:"children"`
}

type RuleSet struct {
	Name      string   `yaml:"name"`
	DependsOn []string `yaml:"dependsOn"`
	Rules     []Rule   `yaml:"rules"`
}

type CompiledRule struct {
	Description  string
	Filter       *vm.Program
	Feature      catalog.Feature
	Group        catalog.Group
	SuppressedBy []catalog.Feature
	Settings     Settings
	Children     []CompiledRule
}

// Match is a feature attached by a rule.
type Match struct {
	Description string
	Feature     catalog.Feature
	Group       catalog.Group
	Settings    Settings
}

type Engine struct {
	RuleSets map[string]RuleSet
	Rules    []CompiledRule
}

func New() *Engine {
	return &Engine{RuleSets: map[string]RuleSet{}}
}

func (e *Engine) LoadString(s string) error {
	return e.LoadReader(strings.NewReader(s))
}

// LoadReader loads every YAML document in the reader as a RuleSet.
func (e *Engine) LoadReader(r io.Reader) error {
	if e.RuleSets == nil {
		e.RuleSets = map[string]RuleSet{}
	}

	dec := yaml.NewDecoder(r)

	for {
		var rs RuleSet

		if err := dec.Decode(&rs); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("ruleset decode: %w", err)
		}

		if rs.Name == "" {
			return fmt.Errorf("ruleset decode: ruleset has no name")
		}

		if _, found := e.RuleSets[rs.Name]; found {
			return fmt.Errorf("ruleset decode: duplicate ruleset: %s", rs.Name)
		}

		e.RuleSets[rs.Name] = rs
	}
}

// LoadFS loads every .yaml file in the root of the filesystem, in name order.
func (e *Engine) LoadFS(fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return err
	}

	sort.Strings(names)

	for _, name := range names {
		f, err := fsys.Open(name)
		if err != nil {
			return err
		}

		err = e.LoadReader(f)
		_ = f.Close()

		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// CompileRules compiles all loaded rulesets, dependencies are compiled before their dependents
// and independent rulesets in name order.
func (e *Engine) CompileRules() error {
	alreadyLoaded := map[string]bool{}
	e.Rules = nil

	var names []string
	for k := range e.RuleSets {
		alreadyLoaded[k] = false
		names = append(names, k)
	}

	sort.Strings(names)

	for _, k := range names {
		if !alreadyLoaded[k] {
			if err := e.compileRuleSet(alreadyLoaded, []string{}, k); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Engine) compileRuleSet(alreadyLoaded map[string]bool, trail []string, name string) error {
	rs, ok := e.RuleSets[name]
	if !ok {
		return fmt.Errorf("ruleset missing dependency: %s->%s", strings.Join(trail, "->"), name)
	}

	trail = append(trail, rs.Name)

	for _, k := range rs.DependsOn {
		for _, t := range trail {
			if k == t {
				return fmt.Errorf("ruleset circular dependency: %s->%s", strings.Join(trail, "->"), k)
			}
		}

		if !alreadyLoaded[k] {
			if err := e.compileRuleSet(alreadyLoaded, trail, k); err != nil {
				return err
			}
		}
	}

	if cr, err := compileRules(rs.Rules, "", nil); err != nil {
		return fmt.Errorf("ruleset compilation: %s: %w", strings.Join(trail, "->"), err)
	} else {
		e.Rules = append(e.Rules, cr...)
	}

	alreadyLoaded[name] = true

	return nil
}

// compileRules compiles rules and their children, children inherit the group and settings of
// their parent.
func compileRules(rules []Rule, parentGroup catalog.Group, parentSettings Settings) ([]CompiledRule, error) {
	var compiledRules []CompiledRule

	for _, rule := range rules {
		filter := rule.Filter
		if filter == "" {
			filter = "true"
		}

		cf, err := expr.Compile(filter, expr.Env(Input{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("filter compilation: %w", err)
		}

		feature := catalog.Feature(rule.Feature)
		if feature != "" && !catalog.Known(feature) {
			return nil, fmt.Errorf("%s: unknown feature: %s", rule.Description, feature)
		}

		if feature == "" && len(rule.Children) == 0 {
			return nil, fmt.Errorf("%s: rule has neither feature nor children", rule.Description)
		}

		var suppressedBy []catalog.Feature
		for _, s := range rule.SuppressedBy {
			if !catalog.Known(catalog.Feature(s)) {
				return nil, fmt.Errorf("%s: unknown suppressing feature: %s", rule.Description, s)
			}
			suppressedBy = append(suppressedBy, catalog.Feature(s))
		}

		group := catalog.Group(rule.Group)
		if group == "" {
			group = parentGroup
		}

		settings := rule.Settings
		if len(parentSettings) > 0 {
			settings = parentSettings.Merge(rule.Settings)
		}

		if childCompiledRules, err := compileRules(rule.Children, group, settings); err != nil {
			return nil, fmt.Errorf("%s: %w", rule.Description, err)
		} else {
			compiledRules = append(compiledRules, CompiledRule{
				Description:  rule.Description,
				Filter:       cf,
				Feature:      feature,
				Group:        group,
				SuppressedBy: suppressedBy,
				Settings:     settings,
				Children:     childCompiledRules,
			})
		}
	}

	return compiledRules, nil
}

// Execute evaluates every top level rule in order. A rule is skipped if a feature it is
// suppressed by has already been attached. A rule with children attaches the first matching
// child only, children are mutually exclusive.
func (e *Engine) Execute(in Input) ([]Match, error) {
	var matches []Match
	attached := map[catalog.Feature]bool{}

	for _, r := range e.Rules {
		m, found, err := r.match(in, attached)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Description, err)
		}

		if found && !attached[m.Feature] {
			attached[m.Feature] = true
			matches = append(matches, m)
		}
	}

	return matches, nil
}

func (r CompiledRule) match(in Input, attached map[catalog.Feature]bool) (Match, bool, error) {
	for _, s := range r.SuppressedBy {
		if attached[s] {
			return Match{}, false, nil
		}
	}

	out, err := expr.Run(r.Filter, in)
	if err != nil {
		return Match{}, false, err
	}

	if ok, _ := out.(bool); !ok {
		return Match{}, false, nil
	}

	for _, c := range r.Children {
		if m, found, err := c.match(in, attached); err != nil {
			return Match{}, false, fmt.Errorf("%s: %w", c.Description, err)
		} else if found {
			return m, true, nil
		}
	}

	if r.Feature == "" {
		return Match{}, false, nil
	}

	return Match{Description: r.Description, Feature: r.Feature, Group: r.Group, Settings: r.Settings}, true, nil
}
