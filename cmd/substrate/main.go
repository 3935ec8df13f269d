// Command substrate is the composition root wiring C1-C9 together: the
// kong-based CLI shape mirrors hector's own cmd/hector subcommand layout.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arcflow/substrate/internal/canvas"
	"github.com/arcflow/substrate/internal/config"
	"github.com/arcflow/substrate/internal/entry"
	"github.com/arcflow/substrate/internal/knowledge"
	"github.com/arcflow/substrate/internal/lifecycle"
	"github.com/arcflow/substrate/internal/llmclient"
	"github.com/arcflow/substrate/internal/observability"
	"github.com/arcflow/substrate/internal/react"
	"github.com/arcflow/substrate/internal/repository"
	"github.com/arcflow/substrate/internal/tool"
	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

// CLI is the kong command tree, matching hector's top-level verb grouping.
var CLI struct {
	Config string `help:"path to the substrate config YAML" default:"substrate.yaml"`
	Env    string `help:"path to a .env file carrying LM credentials" default:".env"`

	Serve    ServeCmd    `cmd:"" help:"run the canvas fabric and entry HTTP surface"`
	Validate ValidateCmd `cmd:"" help:"validate a workflow document without running it"`
	Version  VersionCmd  `cmd:"" help:"print the build version"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Name("substrate"), kong.Description("agent orchestration runtime"))
	err := ctx.Run(&appContext{})
	ctx.FatalIfErrorf(err)
}

// appContext is kong's run-context, carrying nothing beyond what each
// subcommand resolves for itself from CLI.Config/CLI.Env.
type appContext struct{}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(*appContext) error {
	fmt.Println("substrate (dev)")
	return nil
}

// ValidateCmd loads a workflow document and runs it through the C4
// validator without executing anything.
type ValidateCmd struct {
	Workflow string `arg:"" help:"path to a workflow YAML document"`
}

func (c *ValidateCmd) Run(app *appContext) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	toolEngine, err := buildToolEngine(cfg, logger, nil)
	if err != nil {
		return err
	}

	validator := workflow.NewValidator(workflow.NewExecutorRegistry(), tool.WorkflowToolLookup{Registry: toolEngine.Registry})
	w, err := loadWorkflowDocument(c.Workflow)
	if err != nil {
		return err
	}
	problems := validator.Validate(context.Background(), w)
	if len(problems) == 0 {
		fmt.Println("workflow is valid")
		return nil
	}
	for _, p := range problems {
		fmt.Printf("%s: %s\n", p.Code, p.Message)
	}
	return fmt.Errorf("%d validation problem(s)", len(problems))
}

// ServeCmd runs the long-lived process: canvas fabric, tool engine hot
// reload, lifecycle manager, and the confirm/run HTTP surface.
type ServeCmd struct {
	Addr string `help:"HTTP listen address" default:":8080"`
}

func (c *ServeCmd) Run(app *appContext) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	env, err := config.LoadEnv(CLI.Env)
	if err != nil {
		return err
	}

	ctx := context.Background()
	shutdownTracing, err := observability.NewTracerProvider(ctx, observability.TracerProviderOptions{ServiceName: "substrate"})
	if err != nil {
		return err
	}
	defer shutdownTracing(ctx)

	registry := observability.NewRegistry()

	toolEngine, err := buildToolEngine(cfg, logger, registry)
	if err != nil {
		return err
	}
	if cfg.Tool.HotReload {
		if _, err := toolEngine.Watch(cfg.Tool.Directory, logger); err != nil {
			logger.Warn("tool hot reload disabled", "err", err)
		}
	}

	auditStore, err := knowledge.Open("substrate_audit.db")
	if err != nil {
		return err
	}
	defer auditStore.Close()
	toolEngine.SetKnowledgeStore(knowledge.NewAuditAdapter(auditStore))
	noteStore := knowledge.NewNoteStore()

	scheduler := lifecycle.NewScheduler(lifecycle.NewPolicy(cfg.Scheduler.Policy), lifecycle.Quota{
		MaxConcurrentAgents: cfg.Scheduler.MaxConcurrentAgents,
		MaxCPUCores:         cfg.Scheduler.MaxCPUCores,
		MaxMemoryMB:          cfg.Scheduler.MaxMemoryMB,
		MaxGPUMemMB:          cfg.Scheduler.MaxGPUMemMB,
	})
	lifecycleManager := lifecycle.NewManager(lifecycle.Quota{MaxConcurrentAgents: cfg.Scheduler.MaxConcurrentAgents}, lifecycle.NewExecutionLogger(), scheduler, registry)

	llmClient, err := buildLLMClient(ctx, cfg, env)
	if err != nil {
		return err
	}

	canvasFabric := canvas.NewFabric(func(workflowID, clientID string, msg canvas.Message) {
		logger.Warn("canvas message delivery failed permanently", "workflow_id", workflowID, "client_id", clientID, "type", msg.Type)
	}, canvas.WithAckTimeout(secondsToDuration(cfg.Canvas.AckTimeoutSeconds)), canvas.WithMaxRetries(cfg.Canvas.MaxRetries), canvas.WithDedupCapacity(cfg.Canvas.DedupRingSize))
	go canvasFabric.RunSweep(ctx)

	validator := workflow.NewValidator(workflow.NewExecutorRegistry(), tool.WorkflowToolLookup{Registry: toolEngine.Registry})

	var persist entry.Persister
	workflowRepo, err := repository.NewWorkflowRepository(cfg.Repository.DSN)
	if err != nil {
		logger.Warn("workflow persistence disabled", "err", err)
	} else {
		defer workflowRepo.Close()
		persist = workflowRepo
	}

	rt := &runtime{
		validator:  validator,
		toolEngine: toolEngine,
		llm:        llmClient,
		fabric:     canvasFabric,
		logger:     logger,
		persist:    persist,
		lifecycle:  lifecycleManager,
		notes:      noteStore,
	}

	router := chi.NewRouter()
	router.Mount("/metrics", observability.Handler(registry))
	rt.mount(router)
	rt.mountAgents(router)
	rt.mountNotes(router)
	handler := &canvas.Handler{Fabric: canvasFabric, Lookup: func(workflowID string) (*workflow.Workflow, bool) {
		return &workflow.Workflow{ID: workflowID}, true
	}}
	handler.Mount(router)

	logger.Info("substrate listening", "addr", c.Addr)
	return http.ListenAndServe(c.Addr, router)
}

func buildToolEngine(cfg *config.Config, logger *slog.Logger, metrics prometheus.Registerer) (*tool.Engine, error) {
	registry := tool.NewRegistry()
	concurrency := tool.NewConcurrencyController(cfg.Tool.Concurrency, 0, metrics)
	engine := tool.NewEngine(registry, concurrency, logger)
	if cfg.Tool.Directory != "" {
		if err := engine.Load(cfg.Tool.Directory); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

func buildLLMClient(ctx context.Context, cfg *config.Config, env config.Env) (react.LLMClient, error) {
	switch cfg.LM.Provider {
	case "genai":
		return llmclient.NewGenAIClient(ctx, env.APIKey, cfg.LM.Model)
	default:
		return llmclient.NewOpenAIClient(env.APIKey, env.BaseURL, cfg.LM.Model), nil
	}
}

func loadWorkflowDocument(path string) (*workflow.Workflow, error) {
	// Workflow documents are the same free-form structure persisted by
	// internal/repository; validate accepts the in-memory shape directly.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrInvalidRequest, err)
	}
	return workflow.ParseYAML(data)
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
