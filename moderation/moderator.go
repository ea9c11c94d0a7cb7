package moderation

import (
	"slices"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Detector spots sensitive terms in free text. Matching ignores case,
// punctuation, spacing and common leet substitutions.
type Detector struct {
	matcher *goahocorasick.Machine
	terms   map[string]string // normalized pattern -> term as configured
}

// NewDetector builds the Aho-Corasick automaton over the normalized terms.
// An empty term list yields a detector that never matches.
func NewDetector(terms []string) (*Detector, error) {
	d := &Detector{terms: make(map[string]string, len(terms))}
	patterns := make([][]rune, 0, len(terms))
	for _, term := range terms {
		pattern := normalizeRunes([]rune(term))
		if len(pattern) == 0 {
			continue
		}
		if _, dup := d.terms[string(pattern)]; dup {
			continue
		}
		d.terms[string(pattern)] = term
		patterns = append(patterns, pattern)
	}
	if len(patterns) == 0 {
		return d, nil
	}

	// the double-array trie is built from sorted keys
	slices.SortFunc(patterns, slices.Compare[[]rune])

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	d.matcher = m
	return d, nil
}

// Detect returns the distinct terms found in texts, in order of first appearance.
func (d *Detector) Detect(texts ...string) []string {
	if d.matcher == nil {
		return nil
	}
	var found []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		normalized := normalizeRunes([]rune(text))
		if len(normalized) == 0 {
			continue
		}
		for _, span := range d.matcher.MultiPatternSearch(normalized, false) {
			term, ok := d.terms[string(span.Word)]
			if !ok {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			found = append(found, term)
		}
	}
	return found
}

// normalizeRunes applies simplification and noise removal to a slice of runes.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet speak characters back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
