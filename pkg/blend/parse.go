package blend

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Line prefixes of the format.
const (
	sectionPrefix    = "## "
	subsectionPrefix = "### "
	listPrefix       = "- "
	boldPrefix       = "**"
	footerPrefix     = "*Generated"
	titlePrefix      = "# "

	mainBoardLabel        = "Main Board:"
	additionalBoardsLabel = "Additional Boards:"

	descriptionSubsection = "Description"
	houseRulesSubsection  = "House Rules"

	// countSeparator is the multiplication sign used by "3× Name".
	countSeparator = "×"
)

// lineKind classifies a trimmed line against the current parser state.
type lineKind int

const (
	lineIgnored lineKind = iota
	lineSection
	lineSubsection
	lineOverviewText
	lineBoardMeta
	lineItem
)

type parser struct {
	doc        *Document
	section    *Section
	subsection string
}

// classify applies the checks in their fixed priority order.
func (p *parser) classify(line string) lineKind {
	switch {
	case strings.HasPrefix(line, sectionPrefix):
		return lineSection
	case strings.HasPrefix(line, subsectionPrefix):
		return lineSubsection
	case p.section == nil:
		return lineIgnored
	case p.section.Kind == KindOverview:
		if p.subsection != "" && line != "" {
			return lineOverviewText
		}
		return lineIgnored
	case p.section.Kind == KindBoard:
		if strings.HasPrefix(line, listPrefix) {
			return lineBoardMeta
		}
		return lineIgnored
	case line == "",
		isRule(line),
		strings.HasPrefix(line, boldPrefix),
		strings.HasPrefix(line, footerPrefix):
		return lineIgnored
	default:
		return lineItem
	}
}

// Parse reads a blend document from text. It never fails: malformed or
// unrecognised lines are skipped.
func Parse(text string) *Document {
	p := &parser{doc: NewDocument()}
	for _, raw := range strings.Split(text, "\n") {
		p.line(strings.TrimSpace(raw))
	}
	return p.doc
}

// ParseReader reads a blend document from r. Only read errors are returned.
func ParseReader(r io.Reader) (*Document, error) {
	p := &parser{doc: NewDocument()}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.line(strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// Title returns the blend name from the first "# " line, if any.
func Title(text string) string {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, titlePrefix) {
			return strings.TrimSpace(line[len(titlePrefix):])
		}
	}
	return ""
}

func (p *parser) line(line string) {
	switch p.classify(line) {
	case lineSection:
		p.section = p.doc.Ensure(strings.TrimSpace(line[len(sectionPrefix):]))
		p.subsection = ""
	case lineSubsection:
		p.subsection = strings.TrimSpace(line[len(subsectionPrefix):])
	case lineOverviewText:
		o := p.section.Overview
		switch p.subsection {
		case descriptionSubsection:
			o.Description = appendLine(o.Description, line)
		case houseRulesSubsection:
			o.HouseRules = appendLine(o.HouseRules, line)
		}
	case lineBoardMeta:
		p.boardMeta(strings.TrimSpace(line[len(listPrefix):]))
	case lineItem:
		if it, ok := parseItem(line); ok {
			p.section.Items = append(p.section.Items, it)
		}
	}
}

func (p *parser) boardMeta(line string) {
	b := p.section.Board
	switch {
	case strings.HasPrefix(line, mainBoardLabel):
		b.MainBoard = afterColon(line)
	case strings.HasPrefix(line, additionalBoardsLabel):
		b.AdditionalBoards = cleanBoards(strings.Split(afterColon(line), ","))
	}
}

// parseItem turns a candidate resource line into an item.
// It reports false for lines that carry no item (empty or "#"-prefixed).
func parseItem(line string) (Item, bool) {
	clean := line
	if strings.HasPrefix(clean, listPrefix) {
		clean = strings.TrimSpace(clean[len(listPrefix):])
	}
	if clean == "" || strings.HasPrefix(clean, "#") {
		return Item{}, false
	}

	if strings.Contains(clean, countSeparator) {
		left, right, _ := strings.Cut(clean, countSeparator)
		name := strings.TrimSpace(right)
		if n, ok := parseCount(strings.TrimSpace(left)); ok && name != "" {
			return Item{Name: name, Count: n}, true
		}
		return NewItem(clean), true
	}

	if isDigit(clean[0]) && strings.Contains(clean, " ") {
		left, right, _ := strings.Cut(clean, " ")
		if n, ok := parseCount(left); ok {
			return Item{Name: strings.TrimSpace(right), Count: n}, true
		}
	}

	return NewItem(clean), true
}

// parseCount accepts a non-empty run of ASCII digits with a value of at least one.
func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// isRule reports a Markdown thematic break such as the "---" before the footer.
func isRule(line string) bool {
	return len(line) >= 3 && strings.Trim(line, "-") == ""
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func afterColon(s string) string {
	_, rest, _ := strings.Cut(s, ":")
	return strings.TrimSpace(rest)
}

func appendLine(acc, line string) string {
	if acc == "" {
		return line
	}
	return acc + "\n" + line
}
