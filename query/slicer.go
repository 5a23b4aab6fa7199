package query

import "net/url"

// Slicer splits parameter sets whose encoded query would exceed MaxLength.
// Every resulting set still has to be queried; their results are merged.
type Slicer struct {
	MaxLength int
	// Preferred keys are split before any other list-valued key.
	Preferred []string
}

// Slice returns p unchanged when it fits. Otherwise the longest list among the
// preferred keys (or among all keys, if no preferred key has several values)
// is halved, recursively. A set that no longer has a list to split is passed
// through as is, even when it is still too long.
func (s Slicer) Slice(p Params) []Params {
	if s.MaxLength <= 0 || len(p.Encode()) <= s.MaxLength {
		return []Params{p}
	}

	key := s.sliceKey(p)
	if key == "" {
		return []Params{p}
	}

	values := p[key]
	half := (len(values) + 1) / 2

	left := p.Clone()
	left[key] = left[key][:half]
	right := p.Clone()
	right[key] = right[key][half:]

	return append(s.Slice(left), s.Slice(right)...)
}

func (s Slicer) sliceKey(p Params) string {
	if key := longest(p, s.Preferred); key != "" {
		return key
	}
	return longest(p, p.keys())
}

// longest returns the candidate with several values and the longest encoding.
func longest(p Params, candidates []string) string {
	best, bestLen := "", 0
	for _, key := range candidates {
		values := p[key]
		if len(values) < 2 {
			continue
		}
		encoded := len(url.Values{key: values}.Encode())
		if encoded > bestLen {
			best, bestLen = key, encoded
		}
	}
	return best
}
