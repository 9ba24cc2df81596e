package blend

import (
	"io"
	"strconv"
	"strings"
)

// Footer is the generated-by marker closing every serialized blend.
const Footer = "*Generated by Dune Imperium Blend Builder*"

// Serialize renders a document in the blend Markdown format.
// Output is byte-identical for identical input.
func Serialize(blendName string, doc *Document) string {
	var sb strings.Builder
	writeDocument(&sb, blendName, doc)
	return sb.String()
}

// Write renders a document to w.
func Write(w io.Writer, blendName string, doc *Document) error {
	_, err := io.WriteString(w, Serialize(blendName, doc))
	return err
}

func writeDocument(sb *strings.Builder, blendName string, doc *Document) {
	if doc == nil {
		doc = NewDocument()
	}

	sb.WriteString(titlePrefix + blendName + "\n\n")

	if o, ok := doc.Overview(); ok {
		sb.WriteString(sectionPrefix + OverviewSection + "\n\n")
		if o.Description != "" {
			sb.WriteString(subsectionPrefix + descriptionSubsection + "\n\n")
			sb.WriteString(o.Description + "\n\n")
		}
		if o.HouseRules != "" {
			sb.WriteString(subsectionPrefix + houseRulesSubsection + "\n\n")
			sb.WriteString(o.HouseRules + "\n\n")
		}
	}

	if b, ok := doc.Board(); ok {
		main := b.MainBoard
		if main == "" {
			main = DefaultMainBoard
		}
		sb.WriteString(sectionPrefix + BoardSection + "\n\n")
		sb.WriteString(listPrefix + mainBoardLabel + " " + main + "\n")
		if len(b.AdditionalBoards) > 0 {
			sb.WriteString(listPrefix + additionalBoardsLabel + " " + strings.Join(b.AdditionalBoards, ", ") + "\n")
		}
		sb.WriteString("\n")
	}

	if total := doc.TotalItems(); total > 0 {
		sb.WriteString("**Total Items:** " + strconv.Itoa(total) + "\n\n")
	}

	for _, name := range doc.order {
		s := doc.sections[name]
		if s.Kind != KindItems || len(s.Items) == 0 {
			continue
		}
		sb.WriteString(sectionPrefix + name + "\n\n")
		for _, e := range Aggregate(s.Items) {
			sb.WriteString(e.Line() + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n" + Footer + "\n")
}
