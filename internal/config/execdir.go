package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExecutionDirTemplate expands the {operation}, {timestamp}, and
// {hostname} placeholders from §6 into a concrete directory name. An
// empty template falls back to "{operation}_{timestamp}_{uuid}", the
// teacher-style behavior of always producing a unique directory even
// when the operator supplies no template at all.
func ExecutionDirTemplate(template, operation string, now time.Time) string {
	if template == "" {
		return fmt.Sprintf("%s_%s_%s", operation, now.UTC().Format("20060102_150405"), uuid.NewString())
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	r := strings.NewReplacer(
		"{operation}", operation,
		"{timestamp}", now.UTC().Format("20060102_150405"),
		"{hostname}", host,
		"{uuid}", uuid.NewString(),
	)
	return r.Replace(template)
}
