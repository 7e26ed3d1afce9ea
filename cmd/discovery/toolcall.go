package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var callPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// parseToolCall parses tool_name(key=value, ...) or a bare tool name.
// A JSON object {"name": ..., "arguments": {...}} is accepted as well.
func parseToolCall(input string) (string, map[string]interface{}, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil, fmt.Errorf("empty tool call")
	}

	if strings.HasPrefix(input, "{") {
		var call struct {
			Name      string                 `json:"name"`
			Arguments map[string]interface{} `json:"arguments"`
		}
		if err := json.Unmarshal([]byte(input), &call); err != nil {
			return "", nil, fmt.Errorf("parse json tool call: %w", err)
		}
		if call.Name == "" {
			return "", nil, fmt.Errorf("tool name is required")
		}
		return call.Name, call.Arguments, nil
	}

	matches := callPattern.FindStringSubmatch(input)
	if matches == nil {
		if strings.ContainsAny(input, "() ") {
			return "", nil, fmt.Errorf("invalid tool call %q: want tool_name(key=value, ...)", input)
		}
		return input, map[string]interface{}{}, nil
	}

	name := matches[1]
	args := make(map[string]interface{})
	positional := 0
	for _, arg := range splitArgs(matches[2]) {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if idx := strings.Index(arg, "="); idx > 0 {
			args[strings.TrimSpace(arg[:idx])] = parseValue(arg[idx+1:])
			continue
		}
		args[fmt.Sprintf("arg%d", positional)] = parseValue(arg)
		positional++
	}
	return name, args, nil
}

// splitArgs splits comma-separated arguments, respecting quoted strings
// and nested JSON.
func splitArgs(s string) []string {
	var result []string
	var current strings.Builder
	var quote rune
	depth := 0

	for _, ch := range s {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '{' || ch == '[':
			depth++
		case ch == '}' || ch == ']':
			depth--
		case ch == ',' && depth == 0:
			result = append(result, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(ch)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// parseValue parses a string value into a JSON-compatible value.
func parseValue(s string) interface{} {
	s = strings.TrimSpace(s)

	if (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) {
		var result interface{}
		if err := json.Unmarshal([]byte(s), &result); err == nil {
			return result
		}
	}

	switch s {
	case "true":
		return true
	case "false":
		return false
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		return s[1 : len(s)-1]
	}
	return s
}
