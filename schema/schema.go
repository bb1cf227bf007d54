// Package schema describes config object graphs as explicit ordered field
// descriptors, and provides depth-first traversal over them.
//
// Each config type registers a declaration-ordered list of (name, getter,
// setter, metadata) descriptors by implementing Walkable. This replaces
// runtime reflection: ordering is guaranteed by construction, and annotations
// (comments, bounds, sync exclusion) are typed attributes on the descriptor.
package schema

// NumericRange is an inclusive min/max restriction on a raw numeric field.
// Entry-backed fields carry their bounds internally; this is for plain
// numeric properties.
type NumericRange struct {
	Min float64
	Max float64
}

// Clamp forces v into the range
func (r NumericRange) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// FieldMeta carries the declared attributes of one field
type FieldMeta struct {
	// Comment is written as a leading comment line in the persisted file
	Comment string
	// NonSync excludes the field from sync payloads; it still appears in
	// local saves
	NonSync bool
	// RequiresRestart marks fields whose change only takes effect after a
	// client restart
	RequiresRestart bool
	// Range restricts raw numeric fields; nil means unrestricted
	Range *NumericRange
}

// Descriptor describes one mutable public property of a config object
type Descriptor struct {
	Name string
	Get  func() any
	Set  func(any) error
	Meta FieldMeta
}

// Walkable is implemented by any config-shaped object whose fields can be
// traversed. SchemaFields must return descriptors in declaration order and
// must be stable across calls.
type Walkable interface {
	SchemaFields() []Descriptor
}

// Flags adjusts traversal behavior
type Flags byte

// Flag bits
const (
	// CheckNonSync skips fields marked NonSync; the default for sync payloads
	CheckNonSync Flags = 0
	// IgnoreNonSync includes NonSync fields; used for full local saves
	IgnoreNonSync Flags = 1
)

// ignoresNonSync reports whether the NonSync marker should be ignored
func (f Flags) ignoresNonSync() bool {
	return f&IgnoreNonSync == IgnoreNonSync
}

// Visitor receives one field per invocation during a walk. parent is the
// object owning the field, oldPrefix the parent's path, path the field's full
// dotted path, and value the field's current value.
type Visitor func(parent Walkable, oldPrefix, path string, value any, desc Descriptor)

// Walk performs a depth-first, pre-order traversal of root's fields in
// declaration order, building dotted paths from prefix. Fields marked NonSync
// are skipped unless flags includes IgnoreNonSync. A failure on one field
// does not abort traversal of its siblings.
func Walk(root Walkable, prefix string, flags Flags, visit Visitor) {
	for _, desc := range root.SchemaFields() {
		if desc.Meta.NonSync && !flags.ignoresNonSync() {
			continue
		}
		path := prefix + "." + desc.Name
		value := visitField(root, prefix, path, desc, visit)
		if nested, ok := value.(Walkable); ok && nested != nil {
			Walk(nested, path, flags, visit)
		}
	}
}

// visitField isolates one field's getter and visitor call so a panic in
// either cannot take down the rest of the walk
func visitField(parent Walkable, oldPrefix, path string, desc Descriptor, visit Visitor) (value any) {
	defer func() {
		_ = recover()
	}()
	value = desc.Get()
	visit(parent, oldPrefix, path, value, desc)
	return value
}

// Drill resolves a single dotted path by descending only into the branch
// whose name prefixes target, invoking visit exactly once on the leaf found.
// If the path does not resolve, visit is never called. The visitor receives
// the same prefix and path arguments a full Walk would have produced for the
// resolved field.
func Drill(root Walkable, target string, delim byte, flags Flags, visit Visitor) {
	drill(root, target, "", delim, flags, visit)
}

func drill(root Walkable, target, prefix string, delim byte, flags Flags, visit Visitor) {
	descs := make(map[string]Descriptor)
	for _, desc := range root.SchemaFields() {
		if desc.Meta.NonSync && !flags.ignoresNonSync() {
			continue
		}
		descs[desc.Name] = desc
	}

	if desc, ok := descs[target]; ok {
		visitField(root, prefix, joinPath(prefix, target, delim), desc, visit)
		return
	}
	for name, desc := range descs {
		if len(target) > len(name) && target[:len(name)] == name && target[len(name)] == delim {
			value := safeGet(desc)
			if nested, ok := value.(Walkable); ok && nested != nil {
				drill(nested, target[len(name)+1:], joinPath(prefix, name, delim), delim, flags, visit)
			}
			return
		}
	}
}

func joinPath(prefix, name string, delim byte) string {
	if prefix == "" {
		return name
	}
	return prefix + string(delim) + name
}

func safeGet(desc Descriptor) (value any) {
	defer func() {
		_ = recover()
	}()
	return desc.Get()
}
