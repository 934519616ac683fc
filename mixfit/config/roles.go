package config

import "strings"

// StemRole is the musical function of a stem, resolved once from its name.
type StemRole string

const (
	RoleUnknown StemRole = "unknown"
	RoleVocal   StemRole = "vocal"
	RoleBass    StemRole = "bass"
	RoleDrum    StemRole = "drum"
	RoleOther   StemRole = "other"
)

// RoleRule maps case-insensitive name substrings to a role.
type RoleRule struct {
	Role     StemRole `json:"role" yaml:"role"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// StemProfile is everything the rule engine knows about a stem besides its
// analysis numbers.
type StemProfile struct {
	Name   string   `json:"name"`
	Role   StemRole `json:"role"`
	LowEnd bool     `json:"low_end"` // legitimately carries sub energy, exempt from HPF
}

// RoleClassifier resolves stem names to profiles. Rules are tried in order
// and the first match wins.
type RoleClassifier struct {
	Rules          []RoleRule `json:"rules" yaml:"rules"`
	LowEndPatterns []string   `json:"low_end_patterns" yaml:"low_end_patterns"`
}

// DefaultRoleClassifier checks vocal patterns first so "bass_vocals" is a
// vocal stem that is still treated as low-end.
func DefaultRoleClassifier() RoleClassifier {
	return RoleClassifier{
		Rules: []RoleRule{
			{Role: RoleVocal, Patterns: []string{"voc", "voice"}},
			{Role: RoleBass, Patterns: []string{"bass"}},
			{Role: RoleDrum, Patterns: []string{"drum", "kick", "snare", "perc"}},
			{Role: RoleOther, Patterns: []string{"other", "music", "pad", "synth", "guitar", "keys"}},
		},
		LowEndPatterns: []string{"bass", "kick"},
	}
}

// Classify returns the profile for a stem name.
func (rc RoleClassifier) Classify(name string) StemProfile {
	lower := strings.ToLower(name)

	profile := StemProfile{
		Name:   name,
		Role:   RoleUnknown,
		LowEnd: containsAny(lower, rc.LowEndPatterns),
	}

	for _, rule := range rc.Rules {
		if containsAny(lower, rule.Patterns) {
			profile.Role = rule.Role
			break
		}
	}

	return profile
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
