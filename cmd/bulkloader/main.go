// Command bulkloader is the CLI entry point for LOAD/UNLOAD/COUNT,
// dispatching dotted-key configuration onto the core pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cqlio/dsbulk/internal/batch"
	"github.com/cqlio/dsbulk/internal/codec"
	"github.com/cqlio/dsbulk/internal/config"
	"github.com/cqlio/dsbulk/internal/connector"
	"github.com/cqlio/dsbulk/internal/convert"
	"github.com/cqlio/dsbulk/internal/driver"
	"github.com/cqlio/dsbulk/internal/executor"
	"github.com/cqlio/dsbulk/internal/logmanager"
	"github.com/cqlio/dsbulk/internal/mapper"
	"github.com/cqlio/dsbulk/internal/metrics"
	"github.com/cqlio/dsbulk/internal/statement"
	"github.com/cqlio/dsbulk/internal/workflow"
)

const version = "dsbulk 1.0.0"

// Command is one subcommand's usage/description/execute triple.
type Command struct {
	usage       string
	description string
	execute     func(args []string) int
}

func commands() map[string]Command {
	return map[string]Command{
		"load": {
			usage:       "load [--key value ...]",
			description: "Read records from a connector and write them to the database",
			execute:     runLoad,
		},
		"unload": {
			usage:       "unload [--key value ...]",
			description: "Read rows from the database and write them through a connector",
			execute:     runUnload,
		},
		"count": {
			usage:       "count [--key value ...]",
			description: "Count rows matching a query without writing records",
			execute:     runCount,
		},
	}
}

func printUsage() {
	fmt.Println("Usage: bulkloader <load|unload|count> [--section.key value ...]")
	fmt.Println("\nAvailable commands:")

	cmds := commands()
	var names []string
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		fmt.Printf("  %-30s %s\n", c.usage, c.description)
	}
	fmt.Println("\nRecognized configuration sections: " + strings.Join(sectionNames(), ", "))
	fmt.Println("Use --help <section> for that section's settings.")
}

func sectionNames() []string {
	names := make([]string, 0, len(config.TopLevelPaths))
	for n := range config.TopLevelPaths {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func printSectionHelp(section string) {
	settings, ok := sectionHelp[section]
	if !ok {
		fmt.Printf("Unknown section %q. Recognized sections: %s\n", section, strings.Join(sectionNames(), ", "))
		return
	}
	fmt.Printf("Settings under %q:\n", section)
	for _, s := range settings {
		fmt.Printf("  %-35s %s\n", s.key, s.help)
	}
}

type settingHelp struct {
	key  string
	help string
}

var sectionHelp = map[string][]settingHelp{
	"connector": {
		{"connector.format", "csv (default) or json; selects which of the sections below is read"},
		{"connector.csv.url / connector.csv.urls", "resource URI(s) to read or write (format=csv)"},
		{"connector.csv.header", "treat the first CSV row as a header (format=csv)"},
		{"connector.csv.delimiter", "field delimiter character, default ',' (format=csv)"},
		{"connector.csv.maxConcurrentFiles", "bound on concurrently open resources (format=csv)"},
		{"connector.json.url / connector.json.urls", "resource URI(s) to read or write (format=json)"},
		{"connector.json.maxConcurrentFiles", "bound on concurrently open resources (format=json)"},
	},
	"driver": {
		{"driver.host", "database host"},
		{"driver.port", "database port"},
		{"driver.username", "database user"},
		{"driver.password", "database password"},
		{"driver.keyspace", "database name"},
	},
	"schema": {
		{"schema.query", "prepared statement template"},
		{"schema.mapping", "comma-separated bind-variable names, positionally mapped to record fields"},
	},
	"batch": {
		{"batch.mode", "partitionKey (default) or replicaSet"},
		{"batch.maxBatchSize", "max statements per batch"},
		{"batch.maxBatchBytes", "max estimated bytes per batch"},
	},
	"executor": {
		{"executor.maxInFlightRequests", "in-flight request cap, negative means unlimited"},
		{"executor.maxInFlightQueries", "in-flight query cap, non-positive disables the cap"},
		{"executor.maxRequestsPerSecond", "token-bucket rate limit, non-positive means unlimited"},
		{"executor.mode", "failFast (default) or failSafe"},
	},
	"log": {
		{"log.outputDir", "execution directory for bad-record files"},
		{"log.maxErrors", "error ceiling"},
		{"log.maxErrorsIsRatio", "interpret maxErrors as a percentage"},
	},
	"monitoring": {
		{"monitoring.enabled", "serve Prometheus metrics"},
		{"monitoring.port", "metrics server port, default 9090"},
	},
	"engine": {
		{"engine.dryRun", "dispatch no statements, report as if every write succeeded"},
		{"engine.executionDirTemplate", "{operation}/{timestamp}/{hostname} template for the execution directory"},
		{"engine.logRoot", "parent directory executionId is created under"},
	},
	"stats": {
		{"stats.(reserved)", "no settings defined; stats surface only via the monitoring server"},
	},
	"codec": {
		{"codec.booleanNumbers", "treat booleans as numeric 1/0 instead of true/false words"},
		{"codec.(reserved)", "other conversion-context options are not yet CLI-addressable"},
	},
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 3
	}

	switch args[0] {
	case "-v", "--version":
		fmt.Println(version)
		return 0
	case "--help", "help":
		if len(args) > 1 {
			printSectionHelp(args[1])
		} else {
			printUsage()
		}
		return 0
	}

	cmd, ok := commands()[args[0]]
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		return 3
	}
	return cmd.execute(args[1:])
}

// buildTree resolves the dotted-key configuration tree for one
// invocation: defaults, an optional --config file, CLI flag overrides,
// then the DSBULK_ environment overlay, in that priority order (each
// later source wins).
func buildTree(args []string) (*config.Tree, []string, error) {
	tree := config.New()

	var configPath string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}

	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		tree = loaded
	}

	if err := parseDottedFlags(tree, rest); err != nil {
		return nil, nil, err
	}
	tree.ApplyEnvOverlay("dsbulk")
	return tree, rest, nil
}

func buildLogger(tree *config.Tree) *zap.Logger {
	if tree.GetBool("engine.verbose", false) {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

func executionDir(tree *config.Tree, operation string) string {
	if dir := tree.GetString("log.outputDir", ""); dir != "" {
		return dir
	}
	root := tree.GetString("engine.logRoot", "./dsbulk-logs")
	execID := config.ExecutionDirTemplate(tree.GetString("engine.executionDirTemplate", ""), operation, time.Now())
	return root + "/" + execID
}

func buildDriverSession(ctx context.Context, tree *config.Tree) (*driver.Session, error) {
	cfg := driver.ConfigFromEnv()
	if h := tree.GetString("driver.host", ""); h != "" {
		cfg.Host = h
	}
	if p := tree.GetString("driver.port", ""); p != "" {
		cfg.Port = p
	}
	if u := tree.GetString("driver.username", ""); u != "" {
		cfg.User = u
	}
	if pw := tree.GetString("driver.password", ""); pw != "" {
		cfg.Password = pw
	}
	if db := tree.GetString("driver.keyspace", ""); db != "" {
		cfg.Database = db
	}
	return driver.Connect(ctx, cfg)
}

func buildExecutor(tree *config.Tree, d driver.Driver, logger *zap.Logger) *executor.Executor {
	mode := executor.FailFast
	if tree.GetString("executor.mode", "failFast") == "failSafe" {
		mode = executor.FailSafe
	}
	cfg := executor.Config{
		MaxInFlightRequests:  tree.GetInt("executor.maxInFlightRequests", -1),
		MaxInFlightQueries:   tree.GetInt("executor.maxInFlightQueries", 0),
		MaxRequestsPerSecond: tree.GetFloat("executor.maxRequestsPerSecond", -1),
		ContinuousPaging:     tree.GetBool("executor.continuousPaging", false),
		Mode:                 mode,
		DryRun:               tree.GetBool("engine.dryRun", false),
	}
	return executor.New(d, cfg, logger, nil)
}

func buildLogManager(tree *config.Tree, operation, outputDir string, logger *zap.Logger) *logmanager.Manager {
	return logmanager.New(logmanager.Config{
		OutputDir:        outputDir,
		Operation:        operation,
		MaxErrors:        int64(tree.GetInt("log.maxErrors", 0)),
		MaxErrorsIsRatio: tree.GetBool("log.maxErrorsIsRatio", false),
	}, logger)
}

func buildConnector(tree *config.Tree, isRead bool) (connector.Connector, error) {
	opener := connector.NewFileResourceOpener(nil)

	format := tree.GetString("connector.format", "csv")
	prefix := "connector.csv."
	var c connector.Connector
	if format == "json" {
		prefix = "connector.json."
		c = connector.NewJSONConnector(opener)
	} else {
		c = connector.NewCSVConnector(opener)
	}

	settings := connector.Settings{}
	if u, ok := tree.Get(prefix + "url"); ok {
		settings["url"] = u
	}
	if u, ok := tree.Get(prefix + "urls"); ok {
		settings["urls"] = toStringSlice(u)
	}
	settings["header"] = tree.GetBool(prefix+"header", false)
	if d := tree.GetString(prefix+"delimiter", ""); len(d) > 0 {
		settings["delimiter"] = rune(d[0])
	}
	settings["maxConcurrentFiles"] = tree.GetInt(prefix+"maxConcurrentFiles", 4)

	if err := c.Configure(settings, isRead); err != nil {
		return nil, err
	}
	return c, nil
}

// connectorResourceLabel resolves the single resource URI recorded against
// unloaded records, honoring the same format-selected prefix buildConnector
// uses.
func connectorResourceLabel(tree *config.Tree) string {
	prefix := "connector.csv."
	if tree.GetString("connector.format", "csv") == "json" {
		prefix = "connector.json."
	}
	return tree.GetString(prefix+"url", "")
}

// toStringSlice normalizes a JSON-decoded array ([]interface{}, each a
// string) or an already-typed []string into []string, since a config
// file's "urls" array decodes through encoding/json as the former.
func toStringSlice(v interface{}) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func buildMapper(tree *config.Tree) (*mapper.Mapper, *mapper.PreparedTemplate) {
	fields := strings.Split(tree.GetString("schema.mapping", ""), ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	decl := mapper.NewIndexedDeclaration(fields)
	registry := codec.BuildRegistry()
	if tree.GetBool("codec.booleanNumbers", false) {
		registry = codec.BuildRegistryWithBooleanNumbers()
	}
	ctx := convert.NewContext()
	tmpl := &mapper.PreparedTemplate{
		Template: tree.GetString("schema.query", ""),
	}
	return mapper.New(registry, ctx, decl, mapper.DefaultFunctions(ctx)), tmpl
}

func buildBatcher(tree *config.Tree) *batch.Engine {
	mode := batch.PartitionKey
	if tree.GetString("batch.mode", "partitionKey") == "replicaSet" {
		mode = batch.ReplicaSet
	}
	return batch.New(mode, tree.GetInt("batch.maxBatchSize", 32), tree.GetInt("batch.maxBatchBytes", 1<<20))
}

func maybeStartMetricsServer(tree *config.Tree, logger *zap.Logger) func() {
	if !tree.GetBool("monitoring.enabled", false) {
		return func() {}
	}
	port := tree.GetString("monitoring.port", "9090")
	server := metrics.NewServer(port, logger)
	_ = server.Start()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	}
}

func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx, cancel
}

func runLoad(args []string) int {
	tree, _, err := buildTree(args)
	if err != nil {
		fmt.Println("error:", err)
		return 3
	}
	logger := buildLogger(tree)
	defer logger.Sync()
	stopMetrics := maybeStartMetricsServer(tree, logger)
	defer stopMetrics()

	ctx, cancel := interruptContext()
	defer cancel()

	session, err := buildDriverSession(ctx, tree)
	if err != nil {
		fmt.Println("error:", err)
		return 3
	}
	defer session.Close()

	conn, err := buildConnector(tree, true)
	if err != nil {
		fmt.Println("error:", err)
		return 3
	}

	d := driver.NewPGDriver(session, driver.DefaultRetryPolicy())
	exec := buildExecutor(tree, d, logger)
	m, tmpl := buildMapper(tree)
	batcher := buildBatcher(tree)
	logs := buildLogManager(tree, "load", executionDir(tree, "LOAD"), logger)
	defer logs.Close()

	wf := workflow.New(logger)
	terminal, runErr := wf.Run(ctx, func(ctx context.Context) (workflow.State, error) {
		return workflow.Load(ctx, workflow.LoadDeps{
			Connector: conn, Mapper: m, Template: tmpl, Batcher: batcher, Executor: exec, Logs: logs,
		})
	})
	wf.Close()

	fmt.Println(workflow.FormatSummary("load", terminal, 0))
	if runErr != nil {
		fmt.Println("error:", runErr)
	}
	return terminal.ExitCode()
}

func runUnload(args []string) int {
	tree, _, err := buildTree(args)
	if err != nil {
		fmt.Println("error:", err)
		return 3
	}
	logger := buildLogger(tree)
	defer logger.Sync()
	stopMetrics := maybeStartMetricsServer(tree, logger)
	defer stopMetrics()

	ctx, cancel := interruptContext()
	defer cancel()

	session, err := buildDriverSession(ctx, tree)
	if err != nil {
		fmt.Println("error:", err)
		return 3
	}
	defer session.Close()

	conn, err := buildConnector(tree, false)
	if err != nil {
		fmt.Println("error:", err)
		return 3
	}

	d := driver.NewPGDriver(session, driver.DefaultRetryPolicy())
	exec := buildExecutor(tree, d, logger)
	m, tmpl := buildMapper(tree)
	logs := buildLogManager(tree, "unload", executionDir(tree, "UNLOAD"), logger)
	defer logs.Close()

	statements := []*statement.Statement{{Template: tmpl.Template}}
	resource := connectorResourceLabel(tree)

	wf := workflow.New(logger)
	terminal, runErr := wf.Run(ctx, func(ctx context.Context) (workflow.State, error) {
		return workflow.Unload(ctx, workflow.UnloadDeps{
			Connector: conn, Mapper: m, Template: tmpl, Executor: exec, Logs: logs,
			Statements: statements, Resource: resource,
		})
	})
	wf.Close()

	fmt.Println(workflow.FormatSummary("unload", terminal, 0))
	if runErr != nil {
		fmt.Println("error:", runErr)
	}
	return terminal.ExitCode()
}

func runCount(args []string) int {
	tree, _, err := buildTree(args)
	if err != nil {
		fmt.Println("error:", err)
		return 3
	}
	logger := buildLogger(tree)
	defer logger.Sync()
	stopMetrics := maybeStartMetricsServer(tree, logger)
	defer stopMetrics()

	ctx, cancel := interruptContext()
	defer cancel()

	session, err := buildDriverSession(ctx, tree)
	if err != nil {
		fmt.Println("error:", err)
		return 3
	}
	defer session.Close()

	d := driver.NewPGDriver(session, driver.DefaultRetryPolicy())
	exec := buildExecutor(tree, d, logger)
	logs := buildLogManager(tree, "count", executionDir(tree, "COUNT"), logger)
	defer logs.Close()

	query := tree.GetString("schema.query", "")
	statements := []*statement.Statement{{Template: query}}

	var total int64
	wf := workflow.New(logger)
	terminal, runErr := wf.Run(ctx, func(ctx context.Context) (workflow.State, error) {
		return workflow.Count(ctx, workflow.CountDeps{
			Executor: exec, Logs: logs, Statements: statements,
			Printer: func(n int64) { total = n },
		})
	})
	wf.Close()

	fmt.Println(workflow.FormatSummary("count", terminal, total))
	if runErr != nil {
		fmt.Println("error:", runErr)
	}
	return terminal.ExitCode()
}
