package config

import (
	"fmt"

	"github.com/c360/confsync/element"
	"github.com/c360/confsync/errors"
	"github.com/c360/confsync/schema"
	"github.com/c360/confsync/update"
	"github.com/c360/confsync/validation"
)

// versionKey is the reserved top-level key recording the file's schema
// version. It is written first and never walked as a field.
const versionKey = "version"

var versionComment = []string{"Config version. Do not edit this value manually."}

// SerializeToElement renders cfg as an ordered table tree: the version key
// first, then every walked field in declaration order. A field that fails to
// serialize is written as a null marker and reported to errs; its siblings
// proceed. Field comments and declared ranges from the schema descriptors are
// attached as leading comments.
func SerializeToElement(cfg Config, errs *[]string, flags schema.Flags) element.Element {
	root := element.NewTable()
	root.SetCommented(versionKey, element.NewInteger(int64(cfg.Version())), versionComment...)

	prefix := cfg.ID().String()
	tables := map[string]*element.Table{prefix: root}

	schema.Walk(cfg, prefix, flags, func(parent schema.Walkable, oldPrefix, path string, value any, desc schema.Descriptor) {
		t, ok := tables[oldPrefix]
		if !ok {
			return
		}
		comments := fieldComments(desc)
		if h, isHandle := value.(update.Handle); isHandle {
			var fieldErrs []string
			el := h.SerializeStored(&fieldErrs)
			for _, msg := range fieldErrs {
				report(errs, fmt.Sprintf("Problem encountered with serialization of [%s]: %s", path, msg))
			}
			t.SetCommented(desc.Name, el, comments...)
			return
		}
		if _, isSection := value.(schema.Walkable); isSection {
			sub := element.NewTable()
			tables[path] = sub
			t.SetCommented(desc.Name, element.NewTableElement(sub), comments...)
			return
		}
		el, err := encodeRawValue(value)
		if err != nil {
			report(errs, fmt.Sprintf("Problem encountered with serialization of [%s]: %s", path, err.Error()))
			t.SetCommented(desc.Name, element.Null(), comments...)
			return
		}
		t.SetCommented(desc.Name, el, comments...)
	})
	return element.NewTableElement(root)
}

// Serialize renders cfg to TOML text
func Serialize(cfg Config, errs *[]string, flags schema.Flags) (string, error) {
	text, err := element.EncodeString(SerializeToElement(cfg, errs, flags))
	if err != nil {
		return "", errors.Wrap(err, "Config", "Serialize", fmt.Sprintf("encode of %s", cfg.ID()))
	}
	return text, nil
}

// DeserializeFromElement applies el's values onto cfg field by field. Missing
// keys and null markers fall back to the field's current value with a
// warning; a field that fails validation is weakly corrected and reported.
// The returned result is error-tagged if anything was reported, but cfg is
// fully usable either way.
func DeserializeFromElement(cfg Config, el element.Element, errs *[]string, flags schema.Flags) validation.Result[Config] {
	root, err := el.AsTable()
	if err != nil {
		msg := fmt.Sprintf("Config [%s] is corrupted or improperly formatted: %s", cfg.ID(), err.Error())
		report(errs, msg)
		return validation.Error[Config](cfg, msg)
	}

	prefix := cfg.ID().String()
	tables := map[string]*element.Table{prefix: root}
	before := countOf(errs)

	schema.Walk(cfg, prefix, flags, func(parent schema.Walkable, oldPrefix, path string, value any, desc schema.Descriptor) {
		t, ok := tables[oldPrefix]
		if !ok {
			return
		}
		fieldEl, found := t.Get(desc.Name)
		if h, isHandle := value.(update.Handle); isHandle {
			if !found || fieldEl.IsNull() {
				report(errs, fmt.Sprintf("Key [%s] not found or null in config data, using previous or default value", path))
				return
			}
			if msg := h.ApplyElement(fieldEl, path); msg != "" {
				report(errs, msg)
			}
			return
		}
		if _, isSection := value.(schema.Walkable); isSection {
			sub, tErr := fieldEl.AsTable()
			if !found || tErr != nil {
				report(errs, fmt.Sprintf("Section [%s] not found in config data, using defaults", path))
				return
			}
			tables[path] = sub
			return
		}
		if !found || fieldEl.IsNull() {
			report(errs, fmt.Sprintf("Key [%s] not found or null in config data, using previous or default value", path))
			return
		}
		if msg := applyRawValue(desc, fieldEl, path); msg != "" {
			report(errs, msg)
		}
	})

	return validation.Predicated[Config](cfg, countOf(errs) == before,
		fmt.Sprintf("Errors found while deserializing config [%s]", cfg.ID()))
}

// Deserialize parses TOML text onto cfg, returning the applied result and the
// file's recorded version. Malformed TOML leaves cfg untouched at defaults
// and reports version 0.
func Deserialize(cfg Config, text string, errs *[]string, flags schema.Flags) (validation.Result[Config], int) {
	el, err := element.DecodeString(text)
	if err != nil {
		msg := fmt.Sprintf("Config [%s] is corrupted or improperly formatted for parsing: %s", cfg.ID(), err.Error())
		report(errs, msg)
		return validation.Error[Config](cfg, msg), 0
	}
	version := 0
	if root, tErr := el.AsTable(); tErr == nil {
		if vEl, ok := root.Get(versionKey); ok {
			if v, vErr := vEl.AsInteger(); vErr == nil {
				version = int(v)
			}
		}
	}
	return DeserializeFromElement(cfg, el, errs, flags), version
}

// SerializeUpdate renders a delta payload: a flat table keyed by full dotted
// path, containing only fields the manager has marked pending. NonSync fields
// never appear in a delta.
func SerializeUpdate(cfg Config, mgr *update.Manager, errs *[]string) (string, error) {
	flat := element.NewTable()
	prefix := cfg.ID().String()
	schema.Walk(cfg, prefix, schema.CheckNonSync, func(parent schema.Walkable, oldPrefix, path string, value any, desc schema.Descriptor) {
		h, isHandle := value.(update.Handle)
		if !isHandle || !mgr.HasUpdate(path) {
			return
		}
		var fieldErrs []string
		el := h.SerializeStored(&fieldErrs)
		for _, msg := range fieldErrs {
			report(errs, fmt.Sprintf("Problem encountered with serialization of [%s]: %s", path, msg))
		}
		flat.Set(path, el)
	})
	text, err := element.EncodeString(element.NewTableElement(flat))
	if err != nil {
		return "", errors.Wrap(err, "Config", "SerializeUpdate", fmt.Sprintf("encode of %s", cfg.ID()))
	}
	return text, nil
}

// DeserializeUpdate applies a delta payload onto cfg. Each applied path is
// reconciled with the manager so it no longer counts as pending. Unknown paths
// in the payload are reported and skipped.
func DeserializeUpdate(cfg Config, mgr *update.Manager, text string, errs *[]string) validation.Result[Config] {
	el, err := element.DecodeString(text)
	if err != nil {
		msg := fmt.Sprintf("Update for [%s] is corrupted or improperly formatted: %s", cfg.ID(), err.Error())
		report(errs, msg)
		return validation.Error[Config](cfg, msg)
	}
	flat, tErr := el.AsTable()
	if tErr != nil {
		msg := fmt.Sprintf("Update for [%s] is not a table: %s", cfg.ID(), tErr.Error())
		report(errs, msg)
		return validation.Error[Config](cfg, msg)
	}

	before := countOf(errs)
	applied := make(map[string]struct{}, flat.Len())
	prefix := cfg.ID().String()
	schema.Walk(cfg, prefix, schema.CheckNonSync, func(parent schema.Walkable, oldPrefix, path string, value any, desc schema.Descriptor) {
		h, isHandle := value.(update.Handle)
		if !isHandle {
			return
		}
		fieldEl, found := flat.Get(path)
		if !found {
			return
		}
		applied[path] = struct{}{}
		if msg := h.ApplyElement(fieldEl, path); msg != "" {
			report(errs, msg)
		}
		if mgr != nil {
			mgr.MarkReconciled(path)
		}
	})
	for _, key := range flat.Keys() {
		if _, ok := applied[key]; !ok {
			report(errs, fmt.Sprintf("Update key [%s] does not match any syncable field of [%s], skipped", key, cfg.ID()))
		}
	}

	return validation.Predicated[Config](cfg, countOf(errs) == before,
		fmt.Sprintf("Errors found while applying update to config [%s]", cfg.ID()))
}

func fieldComments(desc schema.Descriptor) []string {
	var comments []string
	if desc.Meta.Comment != "" {
		comments = append(comments, desc.Meta.Comment)
	}
	if desc.Meta.Range != nil {
		comments = append(comments, fmt.Sprintf("Range: %v to %v", desc.Meta.Range.Min, desc.Meta.Range.Max))
	}
	if desc.Meta.RequiresRestart {
		comments = append(comments, "Changing this value requires a restart to take effect")
	}
	return comments
}

func report(errs *[]string, msg string) {
	if errs != nil {
		*errs = append(*errs, msg)
	}
}

func countOf(errs *[]string) int {
	if errs == nil {
		return 0
	}
	return len(*errs)
}

// encodeRawValue encodes a plain (non-validated) field value by its Go type
func encodeRawValue(value any) (element.Element, error) {
	switch v := value.(type) {
	case bool:
		return element.NewBool(v), nil
	case string:
		return element.NewString(v), nil
	case int:
		return element.NewInteger(int64(v)), nil
	case int32:
		return element.NewInteger(int64(v)), nil
	case int64:
		return element.NewInteger(v), nil
	case uint:
		return element.NewInteger(int64(v)), nil
	case uint32:
		return element.NewInteger(int64(v)), nil
	case float32:
		return element.NewFloat(float64(v)), nil
	case float64:
		return element.NewFloat(v), nil
	case []string:
		items := make([]element.Element, 0, len(v))
		for _, s := range v {
			items = append(items, element.NewString(s))
		}
		return element.NewArray(items...), nil
	default:
		return element.Null(), errors.WrapInvalid(
			fmt.Errorf("%w: type %T has no plain encoding", errors.ErrFieldValidation, value),
			"Config", "encodeRawValue", "type dispatch")
	}
}

// applyRawValue decodes fieldEl into desc's field by the current value's Go
// type, clamping numerics into the declared range. Returns an error message,
// "" on clean application.
func applyRawValue(desc schema.Descriptor, fieldEl element.Element, path string) string {
	var parsed any
	var err error
	switch desc.Get().(type) {
	case bool:
		parsed, err = fieldEl.AsBool()
	case string:
		parsed, err = fieldEl.AsString()
	case int:
		parsed, err = clampedInt(fieldEl, desc.Meta.Range)
		if err == nil {
			parsed = int(parsed.(int64))
		}
	case int32:
		parsed, err = clampedInt(fieldEl, desc.Meta.Range)
		if err == nil {
			parsed = int32(parsed.(int64))
		}
	case int64:
		parsed, err = clampedInt(fieldEl, desc.Meta.Range)
	case float32:
		parsed, err = clampedFloat(fieldEl, desc.Meta.Range)
		if err == nil {
			parsed = float32(parsed.(float64))
		}
	case float64:
		parsed, err = clampedFloat(fieldEl, desc.Meta.Range)
	case []string:
		parsed, err = stringSlice(fieldEl)
	default:
		return fmt.Sprintf("Key [%s] has no plain decoding for type %T, using previous or default value", path, desc.Get())
	}
	if err != nil {
		return fmt.Sprintf("Error deserializing key [%s], using previous or default value: %s", path, err.Error())
	}
	if desc.Set == nil {
		return fmt.Sprintf("Key [%s] is read-only, value not applied", path)
	}
	if err := desc.Set(parsed); err != nil {
		return fmt.Sprintf("Error applying key [%s]: %s", path, err.Error())
	}
	return ""
}

func clampedInt(el element.Element, r *schema.NumericRange) (any, error) {
	v, err := el.AsInteger()
	if err != nil {
		return int64(0), err
	}
	if r != nil {
		v = int64(r.Clamp(float64(v)))
	}
	return v, nil
}

func clampedFloat(el element.Element, r *schema.NumericRange) (any, error) {
	v, err := el.AsFloat()
	if err != nil {
		return float64(0), err
	}
	if r != nil {
		v = r.Clamp(v)
	}
	return v, nil
}

func stringSlice(el element.Element) (any, error) {
	arr, err := el.AsArray()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, sErr := item.AsString()
		if sErr != nil {
			return nil, sErr
		}
		out = append(out, s)
	}
	return out, nil
}
