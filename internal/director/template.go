package director

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

// TemplateFunc computes a field from the data record.
type TemplateFunc func(data map[string]any) any

// Template is an Input whose fields may reference a data record. String
// fields may contain {{key}} or {{a.b}} placeholders; a field may also be a
// TemplateFunc (or a plain func(map[string]any) any) that is invoked with the
// data. Maps and slices are resolved element by element.
type Template struct {
	TenantID   string
	Title      any
	Subtitle   any
	Content    any
	Layout     map[string]any
	Style      map[string]any
	Metadata   map[string]any
	Assets     map[string][]string
	Animations map[string]any
}

// FromTemplate resolves tpl against data and proceeds as Advanced.
func (d *Director) FromTemplate(ctx context.Context, b builder.Builder, tpl Template, data map[string]any) (*slide.Slide, error) {
	in, resolveErr := tpl.resolve(data)
	return d.run(ctx, SequenceFromTemplate, b, in, func() (*slide.Slide, error) {
		if resolveErr != nil {
			return nil, resolveErr
		}
		return d.advanced(ctx, b, in)
	})
}

func (tpl Template) resolve(data map[string]any) (in Input, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.ValidationError(fmt.Sprintf("template function panicked: %v", r)).Build()
		}
	}()

	in = Input{
		TenantID:   tpl.TenantID,
		Title:      resolveString(tpl.Title, data),
		Subtitle:   resolveString(tpl.Subtitle, data),
		Content:    Resolve(tpl.Content, data),
		Layout:     resolveMap(tpl.Layout, data),
		Style:      resolveMap(tpl.Style, data),
		Metadata:   resolveMap(tpl.Metadata, data),
		Animations: resolveMap(tpl.Animations, data),
	}
	if tpl.Assets != nil {
		in.Assets = make(map[string][]string, len(tpl.Assets))
		for category, refs := range tpl.Assets {
			out := make([]string, len(refs))
			for i, ref := range refs {
				out[i] = Substitute(ref, data)
			}
			in.Assets[category] = out
		}
	}
	return in, nil
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_\-]+(?:\.[A-Za-z0-9_\-]+)*)\s*\}\}`)

// Resolve resolves a template value against data. A string consisting of a
// single placeholder yields the referenced value unchanged, so structured data
// can be injected; other strings are substituted textually. Unresolved
// placeholders are left verbatim. Typed maps and slices are resolved element
// by element; structs (such as a conversation script) are resolved field by
// field through their canonical JSON form.
func Resolve(v any, data map[string]any) any {
	switch t := v.(type) {
	case string:
		if m := placeholder.FindStringSubmatch(t); m != nil && m[0] == strings.TrimSpace(t) {
			if val, ok := Lookup(data, m[1]); ok {
				return val
			}
			return t
		}
		return Substitute(t, data)
	case TemplateFunc:
		return t(data)
	case func(map[string]any) any:
		return t(data)
	case map[string]any:
		return resolveMap(t, data)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Resolve(item, data)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = Substitute(item, data)
		}
		return out
	default:
		return resolveReflect(v, data)
	}
}

func resolveReflect(v any, data map[string]any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Resolve(iter.Value().Interface(), data)
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Resolve(rv.Index(i).Interface(), data)
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return v
		}
		return Resolve(rv.Elem().Interface(), data)
	case reflect.Struct:
		canonical, err := slide.Canonicalize(v)
		if err != nil {
			return v
		}
		return Resolve(canonical, data)
	default:
		return v
	}
}

func resolveMap(m map[string]any, data map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Resolve(v, data)
	}
	return out
}

func resolveString(v any, data map[string]any) string {
	switch r := Resolve(v, data).(type) {
	case nil:
		return ""
	case string:
		return r
	default:
		return fmt.Sprint(r)
	}
}

// Substitute replaces every {{path}} placeholder in s with the referenced
// value from data.
func Substitute(s string, data map[string]any) string {
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		val, ok := Lookup(data, path)
		if !ok {
			return match
		}
		return fmt.Sprint(val)
	})
}

// Lookup follows a dotted path through nested maps.
func Lookup(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
