package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher tests record file names against the compiled ignore rules
type Matcher struct {
	patterns []compiledIgnore
}

type compiledIgnore struct {
	pattern *regexp.Regexp
	source  string
	reason  string
}

// Matcher compiles the ignore rules for efficient matching
func (c *Config) Matcher() (*Matcher, error) {
	m := &Matcher{patterns: make([]compiledIgnore, 0, len(c.Ignore))}

	for _, ir := range c.Ignore {
		expr := ir.Pattern
		if !ir.IsRegex {
			expr = globToRegexp(ir.Pattern)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", ir.Pattern, err)
		}
		m.patterns = append(m.patterns, compiledIgnore{
			pattern: re,
			source:  ir.Pattern,
			reason:  ir.Reason,
		})
	}

	return m, nil
}

// Match reports whether name should be ignored. A nil matcher ignores nothing.
func (m *Matcher) Match(name string) bool {
	ok, _ := m.MatchReason(name)
	return ok
}

// MatchReason returns true and the rule's reason if name should be ignored
func (m *Matcher) MatchReason(name string) (bool, string) {
	if m == nil {
		return false, ""
	}
	for _, ip := range m.patterns {
		if ip.pattern.MatchString(name) {
			reason := ip.reason
			if reason == "" {
				reason = "matched ignore pattern " + ip.source
			}
			return true, reason
		}
	}
	return false, ""
}

// Len returns the number of compiled rules
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// globToRegexp converts a simple glob (* and ? wildcards) into an anchored expression
func globToRegexp(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}
