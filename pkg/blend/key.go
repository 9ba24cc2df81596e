package blend

import (
	"sort"
	"strconv"
	"strings"
)

// UnknownName stands in for a missing item name or source.
const UnknownName = "Unknown"

// Entry is one aggregated output line of a section.
type Entry struct {
	Key   string
	Count int
}

// Line renders the entry as a list line without the trailing newline.
func (e Entry) Line() string {
	if e.Count == 1 {
		return listPrefix + e.Key
	}
	return listPrefix + strconv.Itoa(e.Count) + countSeparator + " " + e.Key
}

// DisplayKey computes the deduplication and sort key of an item.
//
// The base name is the first non-empty of DisplayName, Objective and Name.
// The source is appended in parentheses unless the base already ends with it.
// A synonym id always yields "base #id (source)".
func DisplayKey(it Item) string {
	base := firstNonEmpty(it.DisplayName, it.Objective, it.Name, UnknownName)
	source := firstNonEmpty(it.Source, UnknownName)
	if it.SynonymID != 0 {
		return base + " #" + strconv.Itoa(it.SynonymID) + " (" + source + ")"
	}
	suffix := "(" + source + ")"
	if strings.HasSuffix(base, suffix) {
		return base
	}
	return base + " " + suffix
}

// Aggregate collapses items into entries sorted by key. Keys sort by byte,
// which differs from UTF-16 code unit order only for keys mixing characters
// above U+FFFF with characters in U+E000..U+FFFF.
// Every item contributes one to its key regardless of its Count.
func Aggregate(items []Item) []Entry {
	counts := make(map[string]int, len(items))
	for _, it := range items {
		counts[DisplayKey(it)]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Count: counts[k]}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
