package districts

import (
	"testing"

	"github.com/hptourism/homestay-portal/pkg/config"
)

func defaultMatcher() *Matcher {
	return NewMatcher(config.DistrictsConfig{
		StopWords:   []string{"district", "division", "hq", "office", "tourism", "circle", "zone", "region", "dept", "department", "the"},
		MinTokenLen: 3,
	})
}

func TestMatchSuffixedVariants(t *testing.T) {
	m := defaultMatcher()

	cases := []struct {
		a, b string
		want bool
	}{
		{"Shimla", "Shimla", true},
		{"Shimla Division", "Shimla", true},
		{"shimla hq", "Shimla", true},
		{"Shimla District Tourism Office", "Shimla", true},
		{"KANGRA", "Kangra District", true},
		{"Lahaul and Spiti", "Lahaul & Spiti", true},
		{"Shimla", "Sirmaur", false},
		{"Solan", "Una", false},
		{"Mandi Division", "Kullu", false},
		{"", "Shimla", false},
		{"Division HQ", "Shimla", false},
	}

	for _, tc := range cases {
		if got := m.Match(tc.a, tc.b); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestNoSpuriousMatchAcrossCanonicalDistricts(t *testing.T) {
	m := defaultMatcher()
	for i, a := range Canonical {
		for j, b := range Canonical {
			if i == j {
				continue
			}
			if m.Match(a, b) {
				t.Errorf("canonical districts %q and %q must not match", a, b)
			}
		}
	}
}

func TestTokensDropStopWordsAndShortFragments(t *testing.T) {
	m := defaultMatcher()
	got := m.Tokens("Una District HQ")
	if len(got) != 1 || got[0] != "una" {
		t.Fatalf("unexpected tokens %v", got)
	}
}

func TestTokensMinLengthKeepsUna(t *testing.T) {
	// "Una" is exactly three letters; the default minimum must not drop it.
	m := defaultMatcher()
	if !m.Match("Una Tourism Office", "Una") {
		t.Fatalf("expected Una variants to match")
	}
}

func TestResolveAndCode(t *testing.T) {
	m := defaultMatcher()

	name, ok := m.Resolve("Shimla Division")
	if !ok || name != "Shimla" {
		t.Fatalf("Resolve = %q, %v", name, ok)
	}

	if code := m.Code("Kangra HQ"); code != "KGR" {
		t.Fatalf("Code = %q, want KGR", code)
	}
	if code := m.Code("Atlantis"); code != FallbackCode {
		t.Fatalf("Code for unknown district = %q, want %q", code, FallbackCode)
	}
}

func TestEveryCanonicalDistrictHasCode(t *testing.T) {
	for _, name := range Canonical {
		if Codes[name] == "" {
			t.Errorf("district %q has no code", name)
		}
	}
}
