package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/anttttti/DuneBlend/pkg/blend"
)

// Well-known resource properties. Every other spreadsheet column is kept
// verbatim in Resource.Properties.
const (
	propType        = "resource_type"
	propName        = "name"
	propSource      = "source"
	propCardSet     = "card_set"
	propObjective   = "objective"
	propDisplayName = "displayName"
	propSynonymID   = "synonymId"
)

// Resource is one catalog entry: a card, tile, leader or board piece.
type Resource struct {
	Type       string
	Name       string
	Source     string
	CardSet    string
	Properties map[string]any
}

// UnmarshalJSON splits the known fields from the free-form columns.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string) string {
		v, ok := raw[key]
		if !ok {
			return ""
		}
		delete(raw, key)
		return fmt.Sprint(v)
	}

	r.Type = take(propType)
	r.Name = take(propName)
	r.Source = take(propSource)
	r.CardSet = take(propCardSet)
	r.Properties = raw
	return nil
}

// MarshalJSON flattens the resource back into a single object.
func (r Resource) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Properties)+4)
	for k, v := range r.Properties {
		out[k] = v
	}
	out[propName] = r.Name
	if r.Type != "" {
		out[propType] = r.Type
	}
	if r.Source != "" {
		out[propSource] = r.Source
	}
	if r.CardSet != "" {
		out[propCardSet] = r.CardSet
	}
	return json.Marshal(out)
}

// Property returns a column as text, or "" when absent.
func (r Resource) Property(key string) string {
	v, ok := r.Properties[key]
	if !ok || v == nil {
		return ""
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Item converts the resource into a blend item.
func (r Resource) Item() blend.Item {
	it := blend.Item{
		Name:        r.Name,
		Count:       1,
		Source:      r.Source,
		Objective:   r.Property(propObjective),
		DisplayName: r.Property(propDisplayName),
	}
	if id, err := strconv.Atoi(r.Property(propSynonymID)); err == nil && id > 0 {
		it.SynonymID = id
	}
	return it
}

// Key is the display key the resource serializes under.
func (r Resource) Key() string {
	return blend.DisplayKey(r.Item())
}
