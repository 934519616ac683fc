package model

import "fmt"

// SuggestionKind identifies which rule produced a suggestion.
type SuggestionKind int

const (
	HighPassFilter SuggestionKind = iota
	Cut
	Boost
	Unmask
)

var kindNames = map[SuggestionKind]string{
	HighPassFilter: "HPF",
	Cut:            "CUT",
	Boost:          "BOOST",
	Unmask:         "UNMASK",
}

func (k SuggestionKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SuggestionKind(%d)", int(k))
}

// ParseSuggestionKind maps a wire name back to its kind.
func ParseSuggestionKind(s string) (SuggestionKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown suggestion kind %q", s)
}

func (k SuggestionKind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown suggestion kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *SuggestionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseSuggestionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Suggestion is one EQ recommendation. Q and GainDB are absent for HPF.
type Suggestion struct {
	Kind        SuggestionKind `json:"type"`
	FrequencyHz int            `json:"freq"`
	Reason      string         `json:"reason"`
	Q           *float64       `json:"q,omitempty"`
	GainDB      *float64       `json:"db,omitempty"`
}

// Float returns a pointer to v, for the optional Suggestion fields.
func Float(v float64) *float64 {
	return &v
}
