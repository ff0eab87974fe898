package schema

import (
	"strings"

	"github.com/syssam/domgen"
)

// Registry indexes finalized object types by their qualified name,
// "Schema.Type".
type Registry struct {
	types map[string]*ObjectType
	order []*ObjectType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*ObjectType)}
}

// Register adds a finalized object type.
func (r *Registry) Register(o *ObjectType) error {
	key := o.Path()
	if _, ok := r.types[key]; ok {
		return domgen.DuplicateError("", "object type", key)
	}
	r.types[key] = o
	r.order = append(r.order, o)
	return nil
}

// Lookup resolves name from inside schema from. Unqualified names refer to
// the schema itself.
func (r *Registry) Lookup(from, name string) (*ObjectType, bool) {
	if !strings.Contains(name, ".") {
		name = from + "." + name
	}
	o, ok := r.types[name]
	return o, ok
}

// ObjectTypes returns the registered object types in registration order.
func (r *Registry) ObjectTypes() []*ObjectType { return r.order }

// Resolve populates the back references of the given object types: every
// reference attribute is appended to the ReferencingAttributes of its
// target. Targets are looked up again through r so that a stale or foreign
// object type is reported instead of silently linked.
func Resolve(r *Registry, types []*ObjectType) error {
	for _, o := range types {
		o.referencing = nil
	}
	for _, o := range types {
		for _, a := range o.attributes.items {
			ref := a.Reference()
			if ref == nil {
				continue
			}
			target, ok := r.Lookup(o.Schema.Name, ref.Target)
			if !ok || target != a.referenced {
				return domgen.NewConfigError(domgen.KindUnresolved, o.Path(), ref.Target,
					"attribute %q references unregistered object type %q", a.Name, ref.Target)
			}
			target.referencing = append(target.referencing, a)
		}
	}
	return nil
}
