package pipeline

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dop251/goja"
	"gopkg.in/yaml.v3"
)

// ComponentRule is one structural check applied to generated component source.
// Exactly one of Contains, Pattern or Script must be set.
type ComponentRule struct {
	Name     string `yaml:"name"`
	Contains string `yaml:"contains,omitempty"`
	Pattern  string `yaml:"pattern,omitempty"`
	// Script is a JavaScript expression evaluated with the source bound to `code`.
	Script  string `yaml:"script,omitempty"`
	Message string `yaml:"message"`

	re   *regexp.Regexp
	prog *goja.Program
}

type ruleFile struct {
	Rules []ComponentRule `yaml:"rules"`
}

// LoadComponentRules reads a YAML rule file. An empty path yields an empty rule set.
func LoadComponentRules(path string) ([]ComponentRule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read component rules: %w", err)
	}
	return ParseComponentRules(data)
}

// ParseComponentRules decodes and compiles a YAML rule document.
func ParseComponentRules(data []byte) ([]ComponentRule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse component rules: %w", err)
	}
	rules := make([]ComponentRule, 0, len(f.Rules))
	for i, r := range f.Rules {
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("component rule %d (%s): %w", i, r.Name, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (r *ComponentRule) compile() error {
	set := 0
	for _, s := range []string{r.Contains, r.Pattern, r.Script} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of contains, pattern or script is required")
	}
	if r.Message == "" {
		r.Message = fmt.Sprintf("Component rule %q failed.", r.Name)
	}
	switch {
	case r.Pattern != "":
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return err
		}
		r.re = re
	case r.Script != "":
		prog, err := goja.Compile(r.Name, r.Script, false)
		if err != nil {
			return err
		}
		r.prog = prog
	}
	return nil
}

// Check returns the rule message and false when code violates the rule.
func (r ComponentRule) Check(code string) (string, bool) {
	switch {
	case r.Contains != "":
		if !strings.Contains(code, r.Contains) {
			return r.Message, false
		}
	case r.Pattern != "":
		re := r.re
		if re == nil {
			re = regexp.MustCompile(r.Pattern)
		}
		if !re.MatchString(code) {
			return r.Message, false
		}
	case r.Script != "":
		ok, err := r.eval(code)
		if err != nil {
			return fmt.Sprintf("%s (%v)", r.Message, err), false
		}
		if !ok {
			return r.Message, false
		}
	}
	return "", true
}

// eval runs the script on a fresh runtime; goja runtimes are not safe for concurrent use.
func (r ComponentRule) eval(code string) (bool, error) {
	prog := r.prog
	if prog == nil {
		p, err := goja.Compile(r.Name, r.Script, false)
		if err != nil {
			return false, err
		}
		prog = p
	}
	vm := goja.New()
	if err := vm.Set("code", code); err != nil {
		return false, err
	}
	v, err := vm.RunProgram(prog)
	if err != nil {
		return false, err
	}
	return v.ToBoolean(), nil
}
