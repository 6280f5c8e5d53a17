package districts

import (
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/hptourism/homestay-portal/pkg/config"
)

// Matcher compares district values that arrive with inconsistent
// administrative suffixes. "Shimla", "Shimla Division", and "shimla hq" all
// refer to the same district; "Sirmaur" and "Shimla" do not.
type Matcher struct {
	stopWords   map[string]struct{}
	minTokenLen int
}

func NewMatcher(cfg config.DistrictsConfig) *Matcher {
	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stop[w] = struct{}{}
		}
	}
	minLen := cfg.MinTokenLen
	if minLen <= 0 {
		minLen = 3
	}
	return &Matcher{stopWords: stop, minTokenLen: minLen}
}

// Tokens normalizes a district value into its significant tokens: lowercase,
// split on non-letters, stop words and short fragments dropped.
func (m *Matcher) Tokens(value string) []string {
	fields := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < m.minTokenLen {
			continue
		}
		if _, skip := m.stopWords[f]; skip {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Match reports whether two district values refer to the same district. A
// match requires a shared significant token; values reduced to no tokens
// never match anything.
func (m *Matcher) Match(a, b string) bool {
	ta := m.Tokens(a)
	tb := m.Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		set[t] = struct{}{}
	}
	for _, t := range tb {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// Resolve maps a raw district value to its canonical name.
func (m *Matcher) Resolve(value string) (string, bool) {
	for _, name := range Canonical {
		if m.Match(value, name) {
			return name, true
		}
	}
	return "", false
}

// Code returns the short district code used in application numbers.
func (m *Matcher) Code(value string) string {
	if name, ok := m.Resolve(value); ok {
		return Codes[name]
	}
	return FallbackCode
}

// ScopeQuery narrows a query to rows whose district column fuzzy-matches the
// officer's district. The filter is a token OR so suffixed stored values
// still match; LOWER/LIKE keeps it portable across dialects.
func (m *Matcher) ScopeQuery(q *gorm.DB, column, officerDistrict string) *gorm.DB {
	tokens := m.Tokens(officerDistrict)
	if len(tokens) == 0 {
		// Unresolvable scope matches nothing rather than everything.
		return q.Where("1 = 0")
	}
	clause := strings.TrimSuffix(
		strings.Repeat("LOWER("+column+") LIKE ? OR ", len(tokens)),
		" OR ",
	)
	args := make([]interface{}, 0, len(tokens))
	for _, t := range tokens {
		args = append(args, "%"+t+"%")
	}
	return q.Where(clause, args...)
}
