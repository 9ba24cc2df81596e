// Package catalog loads the resource catalog (resources.json) that the blend
// builder picks from, and maps serialized blend lines back to catalog items.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/anttttti/DuneBlend/pkg/blend"
)

// ErrInvalid reports a catalog that does not match the resource schema.
var ErrInvalid = errors.New("invalid resource catalog")

//go:embed resources.schema.json
var schemaSource string

var schema = jsonschema.MustCompileString("resources.schema.json", schemaSource)

// synonymKey matches "Name #3 (Source)".
var synonymKey = regexp.MustCompile(`^(.+) #(\d+) \((.+)\)$`)

// MaxCount bounds the copies Enrich expands a single line into.
const MaxCount = 99

// sourcedKey matches "Name (Source)".
var sourcedKey = regexp.MustCompile(`^(.+) \(([^()]+)\)$`)

// Catalog holds resources grouped by lower-case type
// ("imperium", "intrigue", "leaders", ...).
type Catalog struct {
	types map[string][]Resource
	keys  map[string]map[string]int
}

// Load reads and validates a resources.json document.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the resource schema and indexes it.
func Parse(data []byte) (*Catalog, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var raw map[string][]Resource
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	c := &Catalog{
		types: make(map[string][]Resource, len(raw)),
		keys:  make(map[string]map[string]int, len(raw)),
	}
	for typ, resources := range raw {
		typ = strings.ToLower(typ)
		c.types[typ] = append(c.types[typ], resources...)
	}
	for typ, resources := range c.types {
		keys := make(map[string]int, len(resources))
		for i := range resources {
			if resources[i].Type == "" {
				resources[i].Type = typ
			}
			if _, dup := keys[resources[i].Key()]; !dup {
				keys[resources[i].Key()] = i
			}
		}
		c.keys[typ] = keys
	}
	return c, nil
}

// Types returns the resource types in sorted order.
func (c *Catalog) Types() []string {
	out := make([]string, 0, len(c.types))
	for t := range c.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Resources returns the resources of a type; the lookup ignores case.
func (c *Catalog) Resources(typ string) []Resource {
	return c.types[strings.ToLower(typ)]
}

// All returns the whole catalog keyed by type.
func (c *Catalog) All() map[string][]Resource {
	out := make(map[string][]Resource, len(c.types))
	for t, r := range c.types {
		out[t] = r
	}
	return out
}

// Len returns the number of resources across all types.
func (c *Catalog) Len() int {
	n := 0
	for _, r := range c.types {
		n += len(r)
	}
	return n
}

// Lookup resolves a serialized display key of a section back to a catalog
// item. Keys carrying a synonym id ("Siege #2 (Base)") resolve through the
// plain key and keep the id. A bare name matches the first resource with
// that name.
func (c *Catalog) Lookup(section, key string) (blend.Item, bool) {
	typ := strings.ToLower(section)
	resources := c.types[typ]
	if len(resources) == 0 {
		return blend.Item{}, false
	}

	if i, ok := c.keys[typ][key]; ok {
		return resources[i].Item(), true
	}

	if m := synonymKey.FindStringSubmatch(key); m != nil {
		if i, ok := c.keys[typ][m[1]+" ("+m[3]+")"]; ok {
			it := resources[i].Item()
			it.SynonymID, _ = strconv.Atoi(m[2])
			return it, true
		}
	}

	for _, r := range resources {
		it := r.Item()
		if key == r.Name || key == it.DisplayName || key == it.Objective {
			return it, true
		}
	}
	return blend.Item{}, false
}

// Enrich replaces the plain items of every item section with catalog items,
// expanding counts into repeated entries so that serialization aggregates
// them back to the same counts. Items that cannot be resolved are kept
// (also expanded, with a trailing "(Source)" split off) and reported as
// "Section: key". An item counting more than MaxCount is left as a single
// entry with its count and reported as well.
func (c *Catalog) Enrich(doc *blend.Document) []string {
	var unresolved []string
	for _, name := range doc.Names() {
		sec, ok := doc.Section(name)
		if !ok || sec.Kind != blend.KindItems {
			continue
		}

		var out []blend.Item
		for _, it := range sec.Items {
			if it.Count > MaxCount {
				out = append(out, it)
				unresolved = append(unresolved, name+": "+it.Name)
				continue
			}
			resolved, found := c.Lookup(name, it.Name)
			if !found {
				resolved = splitSource(it)
				unresolved = append(unresolved, name+": "+it.Name)
			}
			for n := 0; n < max(it.Count, 1); n++ {
				out = append(out, resolved)
			}
		}
		sec.Items = out
	}
	return unresolved
}

// splitSource keeps an unknown item serializable under its original key.
func splitSource(it blend.Item) blend.Item {
	it.Count = 1
	if it.Source != "" {
		return it
	}
	if m := synonymKey.FindStringSubmatch(it.Name); m != nil {
		it.Name, it.Source = m[1], m[3]
		it.SynonymID, _ = strconv.Atoi(m[2])
	} else if m := sourcedKey.FindStringSubmatch(it.Name); m != nil {
		it.Name, it.Source = m[1], m[2]
	}
	return it
}
