package paper

import "strings"

// Filter selects papers on list requests. Empty fields impose no constraint;
// the remaining predicates are ANDed.
type Filter struct {
	// Tag must equal one of the paper's tags exactly.
	Tag string
	// Author is a case-insensitive substring of any author.
	Author string
	// Journal is a case-insensitive substring of the journal.
	Journal string
}

func NewFilter(tag, author, journal string) Filter {
	return Filter{
		Tag:     strings.TrimSpace(tag),
		Author:  strings.TrimSpace(author),
		Journal: strings.TrimSpace(journal),
	}
}

func (f Filter) IsEmpty() bool {
	return f.Tag == "" && f.Author == "" && f.Journal == ""
}

// Match evaluates the filter in process. Store implementations that push the
// predicate down to the database must agree with it.
func (f Filter) Match(p *Paper) bool {
	if f.Tag != "" && !containsExact(p.Tags, f.Tag) {
		return false
	}
	if f.Author != "" {
		found := false
		for _, a := range p.Authors {
			if containsFold(a, f.Author) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Journal != "" && !containsFold(p.Journal, f.Journal) {
		return false
	}
	return true
}

func containsExact(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
