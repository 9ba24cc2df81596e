package blend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// overviewWire and boardWire are the JSON shapes used by the builder UI.
type overviewWire struct {
	Description string `json:"description" yaml:"description"`
	HouseRules  string `json:"houseRules" yaml:"houseRules"`
}

type boardWire struct {
	MainBoard        string   `json:"mainBoard" yaml:"mainBoard"`
	AdditionalBoards []string `json:"additionalBoards" yaml:"additionalBoards"`
}

func (s *Section) wire() any {
	switch s.Kind {
	case KindOverview:
		return overviewWire{Description: s.Overview.Description, HouseRules: s.Overview.HouseRules}
	case KindBoard:
		boards := s.Board.AdditionalBoards
		if boards == nil {
			boards = []string{}
		}
		return boardWire{MainBoard: s.Board.MainBoard, AdditionalBoards: boards}
	default:
		if s.Items == nil {
			return []Item{}
		}
		return s.Items
	}
}

// MarshalJSON encodes the document as an object keyed by section name,
// keeping section order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.sections[name].wire())
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object produced by MarshalJSON or by the builder
// UI. Key order becomes section order.
func (d *Document) UnmarshalJSON(data []byte) error {
	*d = Document{sections: make(map[string]*Section)}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("blend document must be a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		s := d.Ensure(name)

		switch s.Kind {
		case KindOverview:
			var w overviewWire
			if err := dec.Decode(&w); err != nil {
				return fmt.Errorf("section %q: %w", name, err)
			}
			*s.Overview = Overview{Description: w.Description, HouseRules: w.HouseRules}
		case KindBoard:
			w := boardWire{MainBoard: DefaultMainBoard}
			if err := dec.Decode(&w); err != nil {
				return fmt.Errorf("section %q: %w", name, err)
			}
			s.Board.MainBoard = w.MainBoard
			s.Board.AdditionalBoards = cleanBoards(w.AdditionalBoards)
		default:
			var items []Item
			if err := dec.Decode(&items); err != nil {
				return fmt.Errorf("section %q: %w", name, err)
			}
			if err := d.Add(name, items...); err != nil {
				return err
			}
		}
	}

	_, err = dec.Token()
	return err
}

// MarshalYAML encodes the document as an ordered YAML mapping.
func (d *Document) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range d.order {
		var val yaml.Node
		if err := val.Encode(d.sections[name].wire()); err != nil {
			return nil, fmt.Errorf("section %q: %w", name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&val,
		)
	}
	return node, nil
}
