package deployengine

import (
	"fmt"
	"strings"
)

type SyncParameter struct {
	Name         string
	DisplayName  string
	Description  string
	DefaultValue string

	Value string
	// HasValue is set once Value has been assigned, so that an explicit empty string can be told apart from
	// "unset, use DefaultValue"
	HasValue bool
}

func NewSyncParameter(name, displayName, description, defaultValue string) *SyncParameter {
	return &SyncParameter{
		Name:         name,
		DisplayName:  displayName,
		Description:  description,
		DefaultValue: defaultValue,
	}
}

func (p *SyncParameter) SetValue(v string) {
	p.Value = v
	p.HasValue = true
}

// EffectiveValue is the value the engine will substitute.
func (p *SyncParameter) EffectiveValue() string {
	if p.HasValue {
		return p.Value
	}
	return p.DefaultValue
}

// SyncParameters is the engine's native parameter collection of a deployment object.
// Lookups are case-insensitive and entries keep their insertion order.
type SyncParameters struct {
	entries []*SyncParameter
	index   map[string]int
}

func NewSyncParameters(params ...*SyncParameter) (*SyncParameters, error) {
	c := &SyncParameters{index: map[string]int{}}
	for _, p := range params {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *SyncParameters) Contains(name string) bool {
	_, ok := c.index[foldKey(name)]
	return ok
}

// Get returns the parameter named name, or nil.
func (c *SyncParameters) Get(name string) *SyncParameter {
	i, ok := c.index[foldKey(name)]
	if !ok {
		return nil
	}
	return c.entries[i]
}

func (c *SyncParameters) Add(p *SyncParameter) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("adding sync parameter: name is required")
	}
	if c.index == nil {
		c.index = map[string]int{}
	}
	k := foldKey(p.Name)
	if _, ok := c.index[k]; ok {
		return fmt.Errorf("adding sync parameter: %q already exists", p.Name)
	}
	c.index[k] = len(c.entries)
	c.entries = append(c.entries, p)
	return nil
}

func (c *SyncParameters) Len() int {
	return len(c.entries)
}

func (c *SyncParameters) All() []*SyncParameter {
	return append([]*SyncParameter(nil), c.entries...)
}

func foldKey(s string) string {
	return strings.ToLower(s)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
