package tool

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// manifestTopLevelKeys is the closed set spec.md §6 allows at the top level
// of a tool manifest; any other key is a validation error ("Unknown
// top-level keys → validation error").
var manifestTopLevelKeys = map[string]bool{
	"name": true, "version": true, "description": true, "category": true,
	"tags": true, "parameters": true, "returns": true, "entry": true,
	"concurrency": true, "lenient": true, "author": true,
}

// ParseManifest parses the line-oriented key-value manifest format of
// spec.md §6: a top-level key per line (`key: value`), a `parameters:`
// block whose entries each start with a `- name: ...` line followed by
// one indented `key: value` line per remaining field, and an
// `entry:` block naming the implementation kind and handler/URL.
//
// This is the implementation-free equivalent of the source repo's YAML
// tool manifests; it is parsed the same two-pass way hector's config
// loader decodes a raw map into a typed struct: first into
// map[string]any via a small indent-aware line scanner, then through
// mapstructure into Tool.
func ParseManifest(r io.Reader) (Tool, error) {
	raw, err := scanManifest(r)
	if err != nil {
		return Tool{}, err
	}
	for k := range raw {
		if !manifestTopLevelKeys[k] {
			return Tool{}, valueobjects.Newf(valueobjects.ErrInvalidRequest, "unknown manifest key %q", k)
		}
	}

	var t Tool
	if err := mapstructure.Decode(raw, &t); err != nil {
		return Tool{}, fmt.Errorf("decoding manifest: %w", err)
	}

	if entry, ok := raw["entry"].(map[string]any); ok {
		if kind, ok := entry["type"].(string); ok {
			t.ImplKind = valueobjects.ToolImplKind(kind)
		}
		implCfg := make(map[string]any, len(entry))
		for k, v := range entry {
			if k != "type" {
				implCfg[k] = v
			}
		}
		t.ImplConfig = implCfg
	}
	if t.Status == "" {
		t.Status = valueobjects.ToolDraft
	}
	if t.ID == "" {
		t.ID = t.Name
	}
	return t, nil
}

// scanManifest is a minimal indent-aware line scanner: top-level `key:
// value` pairs, a `parameters:` block of `- field: value` list items (each
// new `- ` starts an entry), and a nested `entry:` block of `field: value`
// lines.
func scanManifest(r io.Reader) (map[string]any, error) {
	sc := bufio.NewScanner(r)
	raw := make(map[string]any)

	var params []map[string]any
	var curParam map[string]any
	var entryBlock map[string]any
	section := ""

	flush := func() {
		if curParam != nil {
			params = append(params, curParam)
			curParam = nil
		}
	}

	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")

		if !indented {
			flush()
			section = ""
			entryBlock = nil
			key, val, hasVal := splitKV(trimmed)
			switch key {
			case "parameters":
				section = "parameters"
			case "entry":
				section = "entry"
				entryBlock = make(map[string]any)
			default:
				if hasVal {
					raw[key] = parseScalar(val)
				}
			}
			continue
		}

		switch section {
		case "parameters":
			if strings.HasPrefix(trimmed, "- ") {
				flush()
				curParam = make(map[string]any)
				trimmed = strings.TrimPrefix(trimmed, "- ")
			}
			if curParam == nil {
				curParam = make(map[string]any)
			}
			k, v, ok := splitKV(trimmed)
			if ok {
				curParam[k] = parseScalar(v)
			}
		case "entry":
			k, v, ok := splitKV(trimmed)
			if ok {
				entryBlock[k] = parseScalar(v)
			}
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(params) > 0 {
		raw["parameters"] = params
	}
	if entryBlock != nil {
		raw["entry"] = entryBlock
	}
	return raw, nil
}

func splitKV(s string) (key, val string, ok bool) {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), true
}

func parseScalar(v string) any {
	v = strings.Trim(v, `"`)
	if v == "true" {
		return true
	}
	if v == "false" {
		return false
	}
	if strings.Contains(v, ",") && !strings.HasPrefix(v, "{") {
		parts := strings.Split(v, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
