package guard

import "fmt"

type compiledRule struct {
	pattern *Pattern
	access  Access
}

// Policy is an ordered, immutable list of compiled rules.
type Policy struct {
	rules []compiledRule
}

func NewPolicy(rules []Rule) (*Policy, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		switch rule.Access {
		case AccessProtected, AccessPublic:
		default:
			return nil, fmt.Errorf("rule %d: unknown access %q", i, rule.Access)
		}

		pattern, err := Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		compiled = append(compiled, compiledRule{pattern: pattern, access: rule.Access})
	}

	return &Policy{rules: compiled}, nil
}

// Protects reports whether the first rule matching path requires a token.
func (p *Policy) Protects(path string) bool {
	rule, ok := p.match(path)
	return ok && rule.access == AccessProtected
}

// Decide returns the authorization decision for path given token presence.
// It has no side effects.
func (p *Policy) Decide(path string, hasToken bool) Decision {
	rule, ok := p.match(path)
	if !ok {
		return Decision{Allow: true}
	}

	if rule.access == AccessPublic || hasToken {
		return Decision{Allow: true, Pattern: rule.pattern.String()}
	}

	return Decision{
		Allow:   false,
		Reason:  ReasonAuthenticationRequired,
		Pattern: rule.pattern.String(),
	}
}

func (p *Policy) match(path string) (compiledRule, bool) {
	for _, rule := range p.rules {
		if rule.pattern.Match(path) {
			return rule, true
		}
	}
	return compiledRule{}, false
}

// Decide evaluates path against DefaultRules.
func Decide(path string, hasToken bool) Decision {
	return defaultPolicy.Decide(path, hasToken)
}

//nolint:gochecknoglobals // Default rules are static and compiled once
var defaultPolicy = mustPolicy(DefaultRules())

func mustPolicy(rules []Rule) *Policy {
	p, err := NewPolicy(rules)
	if err != nil {
		panic(err)
	}
	return p
}
