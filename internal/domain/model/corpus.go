package model

// Corpus is an immutable set of known-compromised passwords.
type Corpus struct {
	source  string
	entries map[string]struct{}
}

// NewCorpus wraps entries as a Corpus. The caller hands over ownership of the
// map and must not modify it afterwards. A nil map yields an empty corpus.
func NewCorpus(source string, entries map[string]struct{}) *Corpus {
	if entries == nil {
		entries = map[string]struct{}{}
	}
	return &Corpus{source: source, entries: entries}
}

// Contains reports whether password is in the corpus. The match is exact and
// case-sensitive.
func (c *Corpus) Contains(password string) bool {
	_, ok := c.entries[password]
	return ok
}

// Len returns the number of distinct entries.
func (c *Corpus) Len() int {
	return len(c.entries)
}

// Source returns the identifier the corpus was loaded from.
func (c *Corpus) Source() string {
	return c.source
}
