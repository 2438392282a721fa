// Package out renders command envelopes as JSON or as key=value lines.
package out

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ggonzalez94/awaken-cli/internal/config"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/samber/lo"
)

func Render(w io.Writer, env model.Envelope, settings config.Settings) error {
	data := env.Data
	if len(settings.SelectFields) > 0 {
		data = project(toGeneric(data), settings.SelectFields)
	}
	jsonMode := settings.OutputMode == "json"

	switch {
	case settings.ResultsOnly && jsonMode:
		return writeJSON(w, data)
	case settings.ResultsOnly:
		return writePlain(w, data)
	case jsonMode:
		env.Data = data
		return writeJSON(w, env)
	}

	doc := map[string]any{
		"success":  env.Success,
		"data":     data,
		"warnings": env.Warnings,
		"meta":     env.Meta,
	}
	if env.Error != nil {
		doc["error"] = env.Error
	}
	return writePlain(w, doc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writePlain prints one line per list item, or a single line for anything
// else. Nested objects are flattened into dotted keys.
func writePlain(w io.Writer, data any) error {
	data = toGeneric(data)
	items, isList := data.([]any)
	if !isList {
		items = []any{data}
	}
	if isList && len(items) == 0 {
		_, err := fmt.Fprintln(w, "[]")
		return err
	}
	for _, item := range items {
		line, err := plainLine(item)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func plainLine(v any) (string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		buf, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	}
	flat := map[string]any{}
	flatten("", m, flat)
	keys := lo.Keys(flat)
	sort.Strings(keys)
	return strings.Join(lo.Map(keys, func(k string, _ int) string {
		return fmt.Sprintf("%s=%s", k, plainScalar(flat[k]))
	}), " "), nil
}

func flatten(prefix string, m map[string]any, dst map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok && len(child) > 0 {
			flatten(key, child, dst)
			continue
		}
		dst[key] = v
	}
}

func plainScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case []any, map[string]any:
		buf, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(buf)
	default:
		return fmt.Sprint(t)
	}
}

// project keeps the selected fields of an object, or of every object in a
// list. Dotted fields ("token0.symbol") reach into nested objects and are
// emitted under the dotted name.
func project(data any, fields []string) any {
	pick := func(m map[string]any) map[string]any {
		picked := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := lookup(m, f); ok {
				picked[f] = v
			}
		}
		return picked
	}
	switch t := data.(type) {
	case []any:
		return lo.FilterMap(t, func(item any, _ int) (any, bool) {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			return pick(m), true
		})
	case map[string]any:
		return pick(t)
	default:
		return data
	}
}

func lookup(m map[string]any, path string) (any, bool) {
	if v, ok := m[path]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	child, ok := m[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(child, rest)
}

// toGeneric round-trips v through JSON so struct tags decide field names.
func toGeneric(v any) any {
	buf, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return v
	}
	return out
}
