package config

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mediamind-ai/mediamind/pkg/env"
)

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Env returns the environment variable key with the usual keyword
// coercion applied, or def when it is not set.
//
//	true, (true)   -> true
//	false, (false) -> false
//	empty, (empty) -> ""
//	null, (null)   -> nil
//
// Values wrapped in double quotes are unwrapped.
func Env(key string, def interface{}) interface{} {
	value, ok := env.Lookup(key)
	if !ok {
		return def
	}
	return coerce(value)
}

func coerce(value string) interface{} {
	switch strings.ToLower(value) {
	case "true", "(true)":
		return true
	case "false", "(false)":
		return false
	case "empty", "(empty)":
		return ""
	case "null", "(null)":
		return nil
	}
	if len(value) > 1 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}

// numeric turns canonical integer strings into ints so typed settings decode
func numeric(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if i, err := strconv.Atoi(s); err == nil && strconv.Itoa(i) == s {
		return i
	}
	return v
}

// parseDefault reads the default of a ${KEY:-default} reference as a YAML scalar
func parseDefault(s string) interface{} {
	var v interface{}
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	return v
}

// expandTree resolves ${KEY} and ${KEY:-default} references in every
// string scalar below value. A scalar made of a single reference takes the
// coerced type of the variable. sources records, per dotted key, whether the
// value came from the environment or the file.
func expandTree(prefix string, value interface{}, sources map[string]string) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		for k, item := range v {
			v[k] = expandTree(prefix+"."+k, item, sources)
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = expandTree(prefix, item, sources)
		}
		return v
	case string:
		out, fromEnv := expandString(v)
		if fromEnv {
			sources[prefix] = SourceEnvironment
		} else {
			sources[prefix] = SourceFile
		}
		return out
	default:
		sources[prefix] = SourceFile
		return v
	}
}

func expandString(s string) (interface{}, bool) {
	if !strings.Contains(s, "${") {
		return s, false
	}

	if m := envRef.FindStringSubmatch(s); m != nil && m[0] == s {
		if _, ok := env.Lookup(m[1]); ok {
			return numeric(Env(m[1], nil)), true
		}
		if strings.Contains(s, ":-") {
			return parseDefault(m[2]), false
		}
		return nil, false
	}

	fromEnv := false
	out := envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if v, ok := env.Lookup(m[1]); ok {
			fromEnv = true
			return v
		}
		return m[2]
	})
	return out, fromEnv
}
