package webdeploy

import (
	"sort"
	"strings"
)

// ParameterOverlay maps parameter names to values. Names compare case-insensitively; the spelling a name was
// first set with is kept. The zero value is an empty overlay.
//
// ParameterOverlay has value semantics: Set and Delete return a new overlay and leave the receiver untouched.
type ParameterOverlay struct {
	entries []parameterEntry
}

type parameterEntry struct {
	key   string
	value string
}

func NewParameterOverlay(m map[string]string) ParameterOverlay {
	var o ParameterOverlay
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o = o.Set(k, m[k])
	}
	return o
}

func (o ParameterOverlay) find(key string) int {
	for i, e := range o.entries {
		if strings.EqualFold(e.key, key) {
			return i
		}
	}
	return -1
}

func (o ParameterOverlay) Set(key, value string) ParameterOverlay {
	entries := append(make([]parameterEntry, 0, len(o.entries)+1), o.entries...)
	if i := o.find(key); i >= 0 {
		entries[i].value = value
	} else {
		entries = append(entries, parameterEntry{key: key, value: value})
	}
	return ParameterOverlay{entries: entries}
}

func (o ParameterOverlay) Delete(key string) ParameterOverlay {
	i := o.find(key)
	if i < 0 {
		return o
	}
	entries := make([]parameterEntry, 0, len(o.entries)-1)
	entries = append(entries, o.entries[:i]...)
	entries = append(entries, o.entries[i+1:]...)
	return ParameterOverlay{entries: entries}
}

func (o ParameterOverlay) Get(key string) (string, bool) {
	if i := o.find(key); i >= 0 {
		return o.entries[i].value, true
	}
	return "", false
}

func (o ParameterOverlay) Len() int {
	return len(o.entries)
}

// Keys returns the parameter names sorted case-insensitively.
func (o ParameterOverlay) Keys() []string {
	keys := make([]string, 0, len(o.entries))
	for _, e := range o.entries {
		keys = append(keys, e.key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})
	return keys
}

func (o ParameterOverlay) Map() map[string]string {
	m := make(map[string]string, len(o.entries))
	for _, e := range o.entries {
		m[e.key] = e.value
	}
	return m
}
