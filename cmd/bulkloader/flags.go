package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cqlio/dsbulk/internal/config"
)

// parseDottedFlags consumes CLI arguments of the form
// --connector.csv.url=file:///a.csv or --connector.csv.url file:///a.csv
// (short aliases resolved by config.ResolveAlias) and writes them into
// tree. Non-flag arguments (e.g. a leading subcommand) must already be
// stripped by the caller.
func parseDottedFlags(tree *config.Tree, args []string) error {
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return fmt.Errorf("unexpected argument %q", arg)
		}
		key := strings.TrimPrefix(arg, "--")

		var value string
		if eq := strings.Index(key, "="); eq >= 0 {
			value = key[eq+1:]
			key = key[:eq]
			i++
		} else if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			value = args[i+1]
			i += 2
		} else {
			value = "true"
			i++
		}

		if err := tree.Set(key, coerce(value)); err != nil {
			return err
		}
	}
	return nil
}

// coerce turns a raw CLI string into a bool/int/float when it
// unambiguously looks like one, leaving it a string otherwise — CLI
// input is always textual, so this mirrors what ApplyEnvOverlay's
// string-typed GetInt/GetBool accessors already tolerate, just applied
// a layer earlier.
func coerce(value string) interface{} {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
