package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harelcraft/statecraft"
	"github.com/harelcraft/statecraft/internal/extensibility"
)

// parseEventWire parses the CLI/BDD event wire form "name[:key=value...]"
// (spec §6), with each value parsed as a literal.
func parseEventWire(wire string) (statecraft.Event, error) {
	parts := strings.Split(wire, ":")
	name := parts[0]
	if name == "" {
		return statecraft.Event{}, fmt.Errorf("empty event name in %q", wire)
	}
	data := map[string]any{}
	for _, kv := range parts[1:] {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			return statecraft.Event{}, fmt.Errorf("malformed key=value pair %q in %q", kv, wire)
		}
		data[kv[:eq]] = parseWireLiteral(kv[eq+1:])
	}
	return statecraft.NewEvent(name, data), nil
}

func parseWireLiteral(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// evaluatorFactory resolves --no-code to the trivial no-op evaluator and its
// absence to the goja-backed dynamic evaluator.
func evaluatorFactory(noCode bool) statecraft.EvaluatorFactory {
	if noCode {
		return extensibility.NewNoCode
	}
	return extensibility.NewDynamic
}
