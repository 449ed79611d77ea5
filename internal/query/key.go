package query

import (
	"encoding/json"
	"fmt"
)

// Key identifies a cached query. Resource groups keys for invalidation;
// Params distinguishes variants such as filters or an asset id.
type Key struct {
	Resource string
	Params   any
}

func NewKey(resource string, params any) Key {
	return Key{Resource: resource, Params: params}
}

// String is the cache identity. Params must marshal to JSON; struct fields
// keep declaration order and map keys are sorted, so equal params give
// equal strings.
func (k Key) String() string {
	if k.Params == nil {
		return k.Resource
	}
	raw, err := json.Marshal(k.Params)
	if err != nil {
		return fmt.Sprintf("%s:%v", k.Resource, k.Params)
	}
	return k.Resource + ":" + string(raw)
}
