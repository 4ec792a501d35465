package builder

import (
	"fmt"
	"reflect"
	"strings"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// Probe checks that b overrides every required operation by invoking each one
// once with placeholder input. Only structural failures count; input
// rejections from a real implementation are expected and ignored. b must be a
// scratch instance: it is reset before Probe returns. A nil or typed-nil
// builder, or one whose Reset panics, fails structurally.
func Probe(b Builder) (err error) {
	if isNil(b) {
		return errors.StructuralError("constructor returned a nil builder").Build()
	}
	defer func() {
		if resetErr := probeReset(b); resetErr != nil && err == nil {
			err = resetErr
		}
	}()

	calls := []struct {
		name string
		call func() error
	}{
		{"SetTitle", func() error { return b.SetTitle("probe") }},
		{"SetSubtitle", func() error { return b.SetSubtitle("probe") }},
		{"SetContent", func() error { return b.SetContent(nil) }},
		{"SetLayout", func() error { return b.SetLayout(map[string]any{}) }},
		{"SetStyle", func() error { return b.SetStyle(map[string]any{}) }},
	}

	var missing []string
	for _, c := range calls {
		if probeCall(c.call) {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return errors.StructuralError(fmt.Sprintf("builder does not implement %s", strings.Join(missing, ", "))).
			WithContext("content_type", contentType(b)).
			WithContext("missing", missing).
			Build()
	}
	return nil
}

// probeCall reports whether the call failed structurally. A panic counts as a
// structural failure.
func probeCall(call func() error) (structural bool) {
	defer func() {
		if r := recover(); r != nil {
			structural = true
		}
	}()
	return errors.HasCategory(call(), errors.CategoryStructural)
}

func isNil(b Builder) bool {
	if b == nil {
		return true
	}
	v := reflect.ValueOf(b)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func probeReset(b Builder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.StructuralError(fmt.Sprintf("builder panicked on Reset: %v", r)).Build()
		}
	}()
	b.Reset()
	return nil
}

func contentType(b Builder) (ct string) {
	defer func() {
		if recover() != nil {
			ct = ""
		}
	}()
	return b.ContentType()
}
