package blend

import (
	"errors"
	"strings"
)

// Reserved section names.
const (
	OverviewSection = "Overview"
	BoardSection    = "Board"
)

// DefaultMainBoard is used when a Board section does not name a main board.
const DefaultMainBoard = "imperium"

// ErrReservedSection is returned when items are added to Overview or Board.
var ErrReservedSection = errors.New("section name is reserved")

// Kind is the shape of a section value.
type Kind int

const (
	KindItems Kind = iota
	KindOverview
	KindBoard
)

func (k Kind) String() string {
	switch k {
	case KindOverview:
		return "overview"
	case KindBoard:
		return "board"
	default:
		return "items"
	}
}

// KindOf returns the shape dictated by a section name.
func KindOf(name string) Kind {
	switch name {
	case OverviewSection:
		return KindOverview
	case BoardSection:
		return KindBoard
	default:
		return KindItems
	}
}

// Overview holds the free-text part of a blend.
type Overview struct {
	Description string
	HouseRules  string
}

// Board holds the board configuration of a blend.
type Board struct {
	MainBoard        string
	AdditionalBoards []string
}

// Item is one resource entry.
//
// The parser only fills Name and Count. DisplayName, Objective, Source and
// SynonymID are set by richer producers (a UI, or catalog.Enrich) and only
// influence serialization. A zero SynonymID means none.
type Item struct {
	Name        string `json:"name" yaml:"name"`
	Count       int    `json:"count" yaml:"count"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Objective   string `json:"objective,omitempty" yaml:"objective,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	SynonymID   int    `json:"synonymId,omitempty" yaml:"synonymId,omitempty"`
}

// NewItem returns an item with the default count.
func NewItem(name string) Item {
	return Item{Name: name, Count: 1}
}

// Section is a tagged union over the three section shapes.
// Exactly one of Overview, Board or Items is meaningful, selected by Kind.
type Section struct {
	Name     string
	Kind     Kind
	Overview *Overview
	Board    *Board
	Items    []Item
}

func newSection(name string) *Section {
	s := &Section{Name: name, Kind: KindOf(name)}
	switch s.Kind {
	case KindOverview:
		s.Overview = &Overview{}
	case KindBoard:
		s.Board = &Board{MainBoard: DefaultMainBoard}
	}
	return s
}

// Document maps section names to section values, remembering insertion order.
type Document struct {
	order    []string
	sections map[string]*Section
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{sections: make(map[string]*Section)}
}

// Names returns section names in document order.
func (d *Document) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.order)
}

// Section returns the named section if present.
func (d *Document) Section(name string) (*Section, bool) {
	if d.sections == nil {
		return nil, false
	}
	s, ok := d.sections[name]
	return s, ok
}

// Ensure returns the named section, creating it with the shape dictated by
// the name. An existing section is returned untouched.
func (d *Document) Ensure(name string) *Section {
	if d.sections == nil {
		d.sections = make(map[string]*Section)
	}
	if s, ok := d.sections[name]; ok {
		return s
	}
	s := newSection(name)
	d.sections[name] = s
	d.order = append(d.order, name)
	return s
}

// Remove deletes a section. It reports whether the section existed.
func (d *Document) Remove(name string) bool {
	if _, ok := d.sections[name]; !ok {
		return false
	}
	delete(d.sections, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// Overview returns the Overview section value if present.
func (d *Document) Overview() (*Overview, bool) {
	s, ok := d.Section(OverviewSection)
	if !ok {
		return nil, false
	}
	return s.Overview, true
}

// Board returns the Board section value if present.
func (d *Document) Board() (*Board, bool) {
	s, ok := d.Section(BoardSection)
	if !ok {
		return nil, false
	}
	return s.Board, true
}

// Items returns the items of a generic section, or nil.
func (d *Document) Items(name string) []Item {
	s, ok := d.Section(name)
	if !ok || s.Kind != KindItems {
		return nil
	}
	return s.Items
}

// SetOverview replaces the Overview section value, creating it if needed.
func (d *Document) SetOverview(o Overview) {
	s := d.Ensure(OverviewSection)
	*s.Overview = o
}

// SetBoard replaces the Board section value, creating it if needed.
// Blank additional boards are dropped.
func (d *Document) SetBoard(b Board) {
	s := d.Ensure(BoardSection)
	s.Board.MainBoard = b.MainBoard
	s.Board.AdditionalBoards = cleanBoards(b.AdditionalBoards)
}

// Add appends items to a generic section, creating it if needed.
// Counts below one are raised to one.
func (d *Document) Add(name string, items ...Item) error {
	if KindOf(name) != KindItems {
		return ErrReservedSection
	}
	s := d.Ensure(name)
	for _, it := range items {
		if it.Count < 1 {
			it.Count = 1
		}
		s.Items = append(s.Items, it)
	}
	return nil
}

// TotalItems counts item entries across generic sections.
// Quantities carried in Count are not summed.
func (d *Document) TotalItems() int {
	total := 0
	for _, name := range d.order {
		s := d.sections[name]
		if s.Kind == KindItems {
			total += len(s.Items)
		}
	}
	return total
}

func cleanBoards(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
