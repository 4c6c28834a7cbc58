package config

// aliases maps short, commonly-typed settings names to their full dotted
// path, so CLI flags and legacy env names can stay terse while the tree
// itself remains unambiguous. Modeled on the teacher's settings shortcuts
// for its connection-string env vars.
var aliases = map[string]string{
	"url":                 "connector.csv.url",
	"urls":                "connector.csv.urls",
	"delimiter":           "connector.csv.delimiter",
	"header":              "connector.csv.header",
	"host":                "driver.host",
	"port":                "driver.port",
	"keyspace":            "driver.keyspace",
	"username":            "driver.username",
	"password":            "driver.password",
	"query":               "schema.query",
	"mapping":             "schema.mapping",
	"batchSize":           "batch.maxBatchSize",
	"batchMode":           "batch.mode",
	"maxInFlight":         "executor.maxInFlightRequests",
	"maxPerSecond":        "executor.maxRequestsPerSecond",
	"maxErrors":           "log.maxErrors",
	"maxErrorsRatio":      "log.maxErrorsIsRatio",
	"logDir":              "log.outputDir",
	"port.monitoring":     "monitoring.port",
	"dryRun":              "engine.dryRun",
}

// ResolveAlias returns path unchanged unless it names a recognized short
// alias, in which case the full dotted path is returned.
func ResolveAlias(path string) string {
	if full, ok := aliases[path]; ok {
		return full
	}
	return path
}
