// Command unified-intelligence-cli runs either a DSL workflow file or a
// batch of natural-language tasks through the multi-agent orchestration
// runtime. Grounded on config/config.go's Load() (viper+godotenv) and
// observability/logger.go's zerolog-backed Logger for startup logging,
// in the teacher's own idiom for a new cmd/ entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hollis-source/unified-intelligence-cli/config"
	"github.com/hollis-source/unified-intelligence-cli/coordinator"
	"github.com/hollis-source/unified-intelligence-cli/dsl/checker"
	"github.com/hollis-source/unified-intelligence-cli/dsl/interpreter"
	"github.com/hollis-source/unified-intelligence-cli/dsl/parser"
	"github.com/hollis-source/unified-intelligence-cli/entities"
	"github.com/hollis-source/unified-intelligence-cli/executor"
	"github.com/hollis-source/unified-intelligence-cli/health"
	"github.com/hollis-source/unified-intelligence-cli/observability"
	"github.com/hollis-source/unified-intelligence-cli/orchestration"
	"github.com/hollis-source/unified-intelligence-cli/planner"
	"github.com/hollis-source/unified-intelligence-cli/providers"
	"github.com/hollis-source/unified-intelligence-cli/providers/llmadapter"
	"github.com/hollis-source/unified-intelligence-cli/sdkcoordinator"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "run-dsl" {
		runDSLCommand(os.Args[2:])
		return
	}
	if len(os.Args) > 1 && os.Args[1] == "health" {
		runHealthCommand(os.Args[2:])
		return
	}
	runTaskCommand(os.Args[1:])
}

// runHealthCommand checks every configured provider's reachability and
// the DSL parser/checker's ability to run, then prints a plain-text
// health report (overall status plus one line per check) via the kept
// health.Checker.
func runHealthCommand(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	_ = fs.Parse(args)

	logger := newStartupLogger(false)
	hc := health.NewChecker()
	hc.RegisterFunc("dsl-runtime", health.PingCheck(), true)

	orch := buildGenerator(logger)
	for _, name := range orch.RegisteredNames() {
		name := name
		hc.RegisterFunc("provider:"+name, func(ctx context.Context) error {
			_, err := orch.GenerateWith(ctx, name, []providers.Message{{Role: "user", Content: "ping"}}, providers.GenerationConfig{MaxTokens: 1})
			return err
		}, false)
	}

	status, results := hc.OverallStatus(context.Background())
	fmt.Printf("overall: %s\n", status)
	for name, r := range results {
		fmt.Printf("  %-24s %-10s %s\n", name, r.Status, r.Message)
	}
	if status == health.StatusUnhealthy {
		os.Exit(1)
	}
}

func runDSLCommand(args []string) {
	fs := flag.NewFlagSet("run-dsl", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "log each task execution as it happens")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: unified-intelligence-cli run-dsl <file.ct> [--verbose]")
		os.Exit(2)
	}

	logger := newStartupLogger(*verbose)
	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		logger.Error("failed to read DSL file", observability.Err(err), observability.String("path", fs.Arg(0)))
		os.Exit(1)
	}

	prog, err := parser.Parse(string(source))
	if err != nil {
		logger.Error("DSL parse failed", observability.Err(err))
		os.Exit(1)
	}

	// Type-checking is advisory, not a gate: bind every top-level functor
	// into the environment first so annotated functors type-check against
	// real signatures, then infer the workflow in that same environment.
	// Unannotated atoms still run — they get a fresh polymorphic function
	// type from the checker, not a hard failure — matching the DSL
	// runtime's own parse-then-interpret behavior rather than blocking on
	// advisory type information the workflow never required.
	env := checker.NewTypeEnvironment()
	c := checker.NewChecker(env)
	for _, functor := range prog.Functors {
		c.Infer(functor)
	}
	c.Infer(prog.Workflow)
	if errs := c.Errors(); len(errs) > 0 {
		for _, e := range errs {
			logger.Warn("DSL type warning", observability.Err(e))
		}
	} else {
		logger.Info("DSL type-checked cleanly")
	}

	exec := buildExecutor(logger)
	interp := interpreter.New(&coordinatorTaskExecutor{exec: exec, logger: logger}, prog.Functors)

	ctx := context.Background()
	result, err := interp.Run(ctx, prog.Workflow, nil)
	if err != nil {
		logger.Error("DSL execution failed", observability.Err(err))
		os.Exit(1)
	}
	fmt.Printf("%v\n", result)
}

func runTaskCommand(args []string) {
	fs := flag.NewFlagSet("unified-intelligence-cli", flag.ExitOnError)
	task := fs.String("task", "", "comma-separated list of task descriptions to run")
	_ = fs.Parse(args)

	if *task == "" {
		fmt.Fprintln(os.Stderr, "usage: unified-intelligence-cli --task \"description1, description2\"")
		os.Exit(2)
	}

	logger := newStartupLogger(false)
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config load failed, continuing with defaults", observability.Err(err))
	} else {
		logger.Info("configuration loaded", observability.String("env", cfg.App.Env))
	}

	tasks := buildTasks(*task)
	agents := defaultAgents()

	prov := buildGenerator(logger)
	p := planner.New(prov)
	ex := executor.New(prov)
	simple := coordinator.New(p, ex)
	sdk := sdkcoordinator.New(ex)
	factory := orchestration.NewFactory(simple, sdk)
	co := factory.Build(orchestration.KindHybrid)

	ctxState := entities.NewExecutionContext("cli-session")
	results, err := co.Coordinate(context.Background(), tasks, agents, ctxState)
	if err != nil {
		logger.Error("coordination failed", observability.Err(err))
		os.Exit(1)
	}

	for i, r := range results {
		fmt.Printf("[%d] %s: %v\n", i, r.Status, r.Output)
		for _, e := range r.Errors {
			fmt.Printf("    error: %s\n", e)
		}
	}
}

func buildTasks(flagValue string) []entities.Task {
	parts := strings.Split(flagValue, ",")
	tasks := make([]entities.Task, 0, len(parts))
	for i, p := range parts {
		desc := strings.TrimSpace(p)
		if desc == "" {
			continue
		}
		tasks = append(tasks, entities.Task{
			TaskID:      fmt.Sprintf("task-%d", i+1),
			Description: desc,
			Priority:    1,
		})
	}
	return tasks
}

func defaultAgents() []entities.Agent {
	return []entities.Agent{
		entities.NewAgent("coder", "coding", "implementation", "debugging"),
		entities.NewAgent("analyst", "analysis", "data", "research"),
		entities.NewAgent("researcher", "research", "investigation", "exploration"),
		entities.NewAgent("writer", "writing", "documentation", "communication"),
		entities.NewAgent("reviewer", "review", "quality", "testing"),
	}
}

func newStartupLogger(verbose bool) observability.Logger {
	level := observability.LogLevelInfo
	if verbose {
		level = observability.LogLevelDebug
	}
	return observability.NewLogger(&observability.LoggerConfig{
		Level:      level,
		Output:     os.Stderr,
		JSONOutput: false,
	})
}

// buildGenerator wires a Provider Orchestrator with every model whose
// credentials are present in the environment, deferring the actual
// llm.Provider construction (and so the HTTP client setup) until the
// orchestrator resolves a fallback chain at Generate time. Grounded on
// llm/factory.go's CreateDefaultProviders env-driven registration,
// adapted to register capability profiles alongside each creator so
// the orchestrator can score them.
func buildGenerator(logger observability.Logger) *providers.Orchestrator {
	orch := providers.NewOrchestrator(providers.DefaultOrchestratorConfig())

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		orch.Register("openai", entities.ModelCapabilities{
			Name: "openai", SuccessRate: 0.95, AvgLatencyS: 2.0,
			CostPerMonthUSD: 40, RequiresInternet: true, MaxTokens: 8192, SupportsTools: true,
		}, llmadapter.NewOpenAICreator(apiKey))
		logger.Info("registered provider", observability.String("name", "openai"))
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		orch.Register("anthropic", entities.ModelCapabilities{
			Name: "anthropic", SuccessRate: 0.96, AvgLatencyS: 2.5,
			CostPerMonthUSD: 45, RequiresInternet: true, MaxTokens: 8192, SupportsTools: true,
		}, llmadapter.NewAnthropicCreator(apiKey))
		logger.Info("registered provider", observability.String("name", "anthropic"))
	}
	if apiKey := os.Getenv("TUPLELEAP_API_KEY"); apiKey != "" {
		orch.Register("tupleleap", entities.ModelCapabilities{
			Name: "tupleleap", SuccessRate: 0.9, AvgLatencyS: 1.5,
			CostPerMonthUSD: 10, RequiresInternet: true, MaxTokens: 4096, SupportsTools: false,
		}, llmadapter.NewTupleLeapCreator(apiKey, os.Getenv("TUPLELEAP_BASE_URL")))
		logger.Info("registered provider", observability.String("name", "tupleleap"))
	}
	if ollamaEnabled := os.Getenv("OLLAMA_BASE_URL"); ollamaEnabled != "" || os.Getenv("LLM_PROVIDER") == "ollama" {
		orch.Register("ollama", entities.ModelCapabilities{
			Name: "ollama", SuccessRate: 0.85, AvgLatencyS: 0.8,
			CostPerMonthUSD: 0, RequiresInternet: false, MaxTokens: 4096, SupportsTools: false,
		}, llmadapter.NewOllamaCreator(os.Getenv("OLLAMA_BASE_URL")))
		logger.Info("registered provider", observability.String("name", "ollama"))
	}

	return orch
}

func buildExecutor(logger observability.Logger) *executor.Executor {
	return executor.New(buildGenerator(logger))
}

// coordinatorTaskExecutor adapts a coordinator-less, bare Executor to
// the interpreter.TaskExecutor contract for DSL atom dispatch: each
// atom becomes a single ad-hoc task assigned to a generalist agent.
type coordinatorTaskExecutor struct {
	exec   *executor.Executor
	logger observability.Logger
}

func (c *coordinatorTaskExecutor) ExecuteTask(ctx context.Context, name string, input interface{}) (interface{}, error) {
	c.logger.Debug("executing DSL atom", observability.String("name", name))
	task := entities.Task{TaskID: name, Description: fmt.Sprintf("%s(%v)", name, input), Priority: 1}
	agent := entities.NewAgent(name, name)
	result := c.exec.Execute(ctx, agent, task, nil)
	if result.Status != entities.StatusSuccess {
		return nil, fmt.Errorf("atom %q failed: %v", name, result.Errors)
	}
	return result.Output, nil
}
