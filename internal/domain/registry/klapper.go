package registry

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KlapperEntry indexes one party of a repertorium entry by name.
type KlapperEntry struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	EntryID     uuid.UUID
	Year        int
	LastName    string
	FirstName   string
	IsCompany   bool
	Capacity    string
	BirthDate   *time.Time
	EntryNumber int
	DeedDate    time.Time
	DeedTitle   string
}

// Validate checks required name fields.
func (k *KlapperEntry) Validate() error {
	k.LastName = strings.TrimSpace(k.LastName)
	k.FirstName = strings.TrimSpace(k.FirstName)
	k.Capacity = strings.TrimSpace(k.Capacity)
	if k.LastName == "" {
		return shared.NewDomainError("INVALID_PARTY", "Party name is required")
	}
	if len(k.LastName) > 200 || len(k.FirstName) > 200 {
		return shared.NewDomainError("INVALID_PARTY", "Party names cannot exceed 200 characters")
	}
	if k.IsCompany {
		k.FirstName = ""
	}
	return nil
}

// FullName renders "LAST, First".
func (k KlapperEntry) FullName() string {
	if k.FirstName == "" {
		return k.LastName
	}
	return k.LastName + ", " + k.FirstName
}

// foldDiacritics returns a fresh transformer; chains keep state between calls.
func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// IndexLetter returns the klapper section a name files under: the first
// letter with diacritics removed, uppercased, or "#" for non-letters.
func IndexLetter(name string) string {
	folded, _, err := transform.String(foldDiacritics(), strings.TrimSpace(name))
	if err != nil {
		folded = name
	}
	for _, r := range folded {
		if unicode.IsLetter(r) {
			return string(unicode.ToUpper(r))
		}
		if !unicode.IsSpace(r) {
			return "#"
		}
	}
	return "#"
}

// FoldName lowercases and strips diacritics for prefix matching.
func FoldName(name string) string {
	folded, _, err := transform.String(foldDiacritics(), name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Sorter orders klapper entries alphabetically using a locale collator.
type Sorter struct {
	tag language.Tag
}

// NewSorter builds a sorter for the given BCP 47 locale. Unknown locales fall back to Dutch.
func NewSorter(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Dutch
	}
	return &Sorter{tag: tag}
}

// Sort orders entries by last name, first name, year and entry number.
// Collators are not safe for concurrent use, so each call builds its own.
func (s *Sorter) Sort(entries []KlapperEntry) {
	c := collate.New(s.tag, collate.IgnoreCase, collate.Loose)
	slices.SortStableFunc(entries, func(a, b KlapperEntry) int {
		if r := c.CompareString(a.LastName, b.LastName); r != 0 {
			return r
		}
		if r := c.CompareString(a.FirstName, b.FirstName); r != 0 {
			return r
		}
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return a.EntryNumber - b.EntryNumber
	})
}

// Section groups the klapper under one index letter.
type Section struct {
	Letter  string
	Entries []KlapperEntry
}

// Group sorts entries and splits them into letter sections in order.
func (s *Sorter) Group(entries []KlapperEntry) []Section {
	s.Sort(entries)
	var sections []Section
	index := make(map[string]int)
	for _, e := range entries {
		letter := IndexLetter(e.LastName)
		i, ok := index[letter]
		if !ok {
			i = len(sections)
			index[letter] = i
			sections = append(sections, Section{Letter: letter})
		}
		sections[i].Entries = append(sections[i].Entries, e)
	}
	return sections
}
