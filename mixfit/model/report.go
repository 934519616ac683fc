package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-mix/mixfit/config"
)

// StemResult is the analysis and suggestions for one stem.
type StemResult struct {
	Name        string           `json:"-"`
	Role        config.StemRole  `json:"role"`
	Analysis    SpectralAnalysis `json:"analysis"`
	Suggestions []Suggestion     `json:"suggestions"`
}

// Report is the outcome of one analysis run. It is not modified after it is
// handed to the caller.
type Report struct {
	ID             string         `json:"id,omitempty"`
	SourceFileName string         `json:"mix_file"`
	CreatedAt      time.Time      `json:"created_at"`
	MixProfile     MixBandProfile `json:"mix_profile"`
	Stems          []StemResult   `json:"-"` // discovery order
	Failures       []StemFailure  `json:"failures,omitempty"`
}

// Stem looks up a stem result by name.
func (r *Report) Stem(name string) (StemResult, bool) {
	for _, s := range r.Stems {
		if s.Name == name {
			return s, true
		}
	}
	return StemResult{}, false
}

// StemNames returns the stem names in discovery order.
func (r *Report) StemNames() []string {
	names := make([]string, len(r.Stems))
	for i, s := range r.Stems {
		names[i] = s.Name
	}
	return names
}

// SuggestionCount returns the total number of suggestions across stems.
func (r *Report) SuggestionCount() int {
	n := 0
	for _, s := range r.Stems {
		n += len(s.Suggestions)
	}
	return n
}

// reportAlias drops the methods so the plain fields marshal normally.
type reportAlias Report

// MarshalJSON writes stems as an object keyed by name, in discovery order.
func (r Report) MarshalJSON() ([]byte, error) {
	head, err := json.Marshal(reportAlias(r))
	if err != nil {
		return nil, err
	}

	var stems bytes.Buffer
	stems.WriteByte('{')
	for i, s := range r.Stems {
		if i > 0 {
			stems.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal stem %q: %w", s.Name, err)
		}
		stems.Write(key)
		stems.WriteByte(':')
		stems.Write(value)
	}
	stems.WriteByte('}')

	// splice "stems" in before the closing brace of the head object
	out := make([]byte, 0, len(head)+stems.Len()+10)
	out = append(out, head[:len(head)-1]...)
	out = append(out, `,"stems":`...)
	out = append(out, stems.Bytes()...)
	out = append(out, '}')
	return out, nil
}

// UnmarshalJSON restores a report, keeping the stems in document order.
func (r *Report) UnmarshalJSON(data []byte) error {
	var aux struct {
		*reportAlias
		Stems json.RawMessage `json:"stems"`
	}
	aux.reportAlias = (*reportAlias)(r)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Stems = nil
	if len(aux.Stems) == 0 || string(aux.Stems) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(aux.Stems))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("stems: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("stems: expected key, got %v", tok)
		}

		var s StemResult
		if err := dec.Decode(&s); err != nil {
			return fmt.Errorf("stems: decode %q: %w", name, err)
		}
		s.Name = name
		r.Stems = append(r.Stems, s)
	}

	_, err = dec.Token()
	return err
}
