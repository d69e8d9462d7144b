package trait

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical trait dimensions. Big Five plus the agent-specific extras.
const (
	Openness          = "openness"
	Conscientiousness = "conscientiousness"
	Extraversion      = "extraversion"
	Agreeableness     = "agreeableness"
	Neuroticism       = "neuroticism"
	Intelligence      = "intelligence"
	Creativity        = "creativity"
	Humor             = "humor"
)

// Dimensions lists the canonical trait dimensions in stable order.
var Dimensions = []string{
	Openness, Conscientiousness, Extraversion, Agreeableness,
	Neuroticism, Intelligence, Creativity, Humor,
}

// DefaultScore is assumed for any canonical dimension a producer left unset.
const DefaultScore = 50

// Style is an agent's communication style.
type Style string

const (
	StyleDirect     Style = "direct"
	StyleDiplomatic Style = "diplomatic"
	StyleAnalytical Style = "analytical"
	StyleExpressive Style = "expressive"
	StyleBalanced   Style = "balanced"
)

// Styles lists all valid communication styles.
var Styles = []Style{StyleDirect, StyleDiplomatic, StyleAnalytical, StyleExpressive, StyleBalanced}

// Valid reports whether s is a member of the style enumeration.
func (s Style) Valid() bool {
	for _, v := range Styles {
		if s == v {
			return true
		}
	}
	return false
}

// Profile is an agent's personality descriptor. Mutable only through
// ApplyUpdate; consumers read trait scores with Score so unset canonical
// dimensions resolve to DefaultScore.
type Profile struct {
	Traits             map[string]int `json:"traits"`
	Interests          []string       `json:"interests"`
	Values             []string       `json:"values"`
	CommunicationStyle Style          `json:"communication_style"`
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched;
// Traits replaces only the supplied keys.
type ProfileUpdate struct {
	Traits             map[string]int `json:"traits,omitempty"`
	Interests          *[]string      `json:"interests,omitempty"`
	Values             *[]string      `json:"values,omitempty"`
	CommunicationStyle *Style         `json:"communication_style,omitempty"`
}

// ValidationError reports a malformed profile field. Always recoverable by
// the caller correcting input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Score returns the value for a trait dimension, or DefaultScore when the
// profile does not carry it.
func (p Profile) Score(dimension string) int {
	if v, ok := p.Traits[dimension]; ok {
		return v
	}
	return DefaultScore
}

// Validate checks the profile invariants: every trait score in [0,100],
// a known communication style, and interest/value lists without blanks or
// case-insensitive duplicates.
func (p Profile) Validate() error {
	for name, v := range p.Traits {
		if v < 0 || v > 100 {
			return &ValidationError{Field: "traits." + name, Reason: fmt.Sprintf("score %d outside [0,100]", v)}
		}
	}
	if p.CommunicationStyle != "" && !p.CommunicationStyle.Valid() {
		return &ValidationError{Field: "communication_style", Reason: fmt.Sprintf("unknown style %q", p.CommunicationStyle)}
	}
	if err := validateList("interests", p.Interests); err != nil {
		return err
	}
	return validateList("values", p.Values)
}

func validateList(field string, items []string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" {
			return &ValidationError{Field: field, Reason: "empty entry"}
		}
		if seen[key] {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("duplicate entry %q", it)}
		}
		seen[key] = true
	}
	return nil
}

// Normalize returns a canonical copy of the profile: missing canonical
// dimensions filled with DefaultScore, list entries trimmed and deduplicated
// case-insensitively (first occurrence wins, display order preserved), and a
// blank style resolved to balanced. Idempotent: normalizing a normalized
// profile changes nothing.
func (p Profile) Normalize() Profile {
	out := Profile{
		Traits:             make(map[string]int, len(Dimensions)),
		Interests:          dedupeList(p.Interests),
		Values:             dedupeList(p.Values),
		CommunicationStyle: p.CommunicationStyle,
	}
	for name, v := range p.Traits {
		out.Traits[name] = v
	}
	for _, d := range Dimensions {
		if _, ok := out.Traits[d]; !ok {
			out.Traits[d] = DefaultScore
		}
	}
	if out.CommunicationStyle == "" {
		out.CommunicationStyle = StyleBalanced
	}
	return out
}

func dedupeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		trimmed := strings.TrimSpace(it)
		key := strings.ToLower(trimmed)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}

// ApplyUpdate validates the update and returns a new profile with only the
// supplied fields replaced. The whole update is rejected on any invalid
// value; the receiver is never partially modified.
func (p Profile) ApplyUpdate(u ProfileUpdate) (Profile, error) {
	for name, v := range u.Traits {
		if v < 0 || v > 100 {
			return Profile{}, &ValidationError{Field: "traits." + name, Reason: fmt.Sprintf("score %d outside [0,100]", v)}
		}
	}
	if u.CommunicationStyle != nil && !u.CommunicationStyle.Valid() {
		return Profile{}, &ValidationError{Field: "communication_style", Reason: fmt.Sprintf("unknown style %q", *u.CommunicationStyle)}
	}
	if u.Interests != nil {
		if err := validateList("interests", *u.Interests); err != nil {
			return Profile{}, err
		}
	}
	if u.Values != nil {
		if err := validateList("values", *u.Values); err != nil {
			return Profile{}, err
		}
	}

	out := p.clone()
	for name, v := range u.Traits {
		out.Traits[name] = v
	}
	if u.Interests != nil {
		out.Interests = dedupeList(*u.Interests)
	}
	if u.Values != nil {
		out.Values = dedupeList(*u.Values)
	}
	if u.CommunicationStyle != nil {
		out.CommunicationStyle = *u.CommunicationStyle
	}
	return out, nil
}

func (p Profile) clone() Profile {
	out := Profile{
		Traits:             make(map[string]int, len(p.Traits)),
		Interests:          append([]string(nil), p.Interests...),
		Values:             append([]string(nil), p.Values...),
		CommunicationStyle: p.CommunicationStyle,
	}
	for k, v := range p.Traits {
		out.Traits[k] = v
	}
	return out
}

// SortedTraitNames returns the profile's trait keys in lexical order.
// Used wherever iteration order must be deterministic.
func (p Profile) SortedTraitNames() []string {
	names := make([]string, 0, len(p.Traits))
	for k := range p.Traits {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
