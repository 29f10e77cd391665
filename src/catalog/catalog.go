package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed endpoints.yaml
var defaultEndpoints []byte

type Group string

const (
	GroupMarket  Group = "market"
	GroupAccount Group = "account"
	GroupOrder   Group = "order"
	GroupUnknown Group = "unknown"
)

type Endpoint struct {
	Group   Group  `yaml:"-"`
	Method  string `yaml:"method"`
	Path    string `yaml:"path"`
	Signed  bool   `yaml:"signed"`
	Summary string `yaml:"summary"`
}

type document struct {
	Groups map[Group][]Endpoint `yaml:"groups"`
}

// Catalog indexes endpoints by path.
type Catalog struct {
	byPath map[string]Endpoint
	all    []Endpoint
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultEndpoints)
}

// Parse reads a catalog document. Duplicate paths and unknown methods are rejected.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	c := &Catalog{byPath: make(map[string]Endpoint)}
	for group, endpoints := range doc.Groups {
		for _, ep := range endpoints {
			ep.Group = group
			ep.Method = strings.ToUpper(ep.Method)
			if ep.Method != "GET" && ep.Method != "POST" {
				return nil, fmt.Errorf("catalog: %s has unsupported method %q", ep.Path, ep.Method)
			}
			if !strings.HasPrefix(ep.Path, "/") {
				return nil, fmt.Errorf("catalog: path %q must start with /", ep.Path)
			}
			if _, dup := c.byPath[ep.Path]; dup {
				return nil, fmt.Errorf("catalog: duplicate path %s", ep.Path)
			}
			c.byPath[ep.Path] = ep
			c.all = append(c.all, ep)
		}
	}

	sort.Slice(c.all, func(i, j int) bool {
		if c.all[i].Group != c.all[j].Group {
			return c.all[i].Group < c.all[j].Group
		}
		return c.all[i].Path < c.all[j].Path
	})
	return c, nil
}

// Lookup finds an endpoint by exact path (no query string).
func (c *Catalog) Lookup(path string) (Endpoint, bool) {
	ep, ok := c.byPath[path]
	return ep, ok
}

// All returns endpoints ordered by group then path.
func (c *Catalog) All() []Endpoint {
	out := make([]Endpoint, len(c.all))
	copy(out, c.all)
	return out
}
