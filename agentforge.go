// Package agentforge provides a high-level façade over the workflow engine,
// checkpoint stores and model providers, enabling rapid construction of
// durable, resumable agent workflows. Most applications interact with this
// package by:
//  1. Loading configuration (config.Load) and creating an AgentForge via New()
//  2. Supplying a workflow (BuildWorkflow for the standard agent-builder
//     graph, or a custom graph.Compiled)
//  3. Invoking turns incrementally (Invoke) or synchronously (InvokeSync)
//
// The façade delegates orchestration to engine.Engine and consumption modes
// to gateway.Gateway while keeping setup ergonomics concise. All defaults
// are safe for local development and testing; production deployments supply
// a durable checkpoint store and a structured logger.
package agentforge

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentforge/checkpoint"
	"github.com/hupe1980/agentforge/config"
	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/engine"
	"github.com/hupe1980/agentforge/gateway"
	"github.com/hupe1980/agentforge/graph"
	"github.com/hupe1980/agentforge/logging"
	"github.com/hupe1980/agentforge/model"
	"github.com/hupe1980/agentforge/model/anthropic"
	"github.com/hupe1980/agentforge/model/openai"
	"github.com/hupe1980/agentforge/observability"
)

// NewModel builds a model from configuration, resolving the provider
// exactly once. Nothing downstream branches on the vendor again.
func NewModel(cfg config.ModelConfig, name string) (model.Model, error) {
	if name == "" {
		name = cfg.Primary
	}
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.Model = name
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(name)
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "mock":
		return model.NewMockModel(name, "mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// NewStore builds a checkpoint store from configuration. The returned
// cleanup function closes backend connections; it is a no-op for the
// in-memory store.
func NewStore(ctx context.Context, cfg config.StoreConfig) (core.CheckpointStore, func() error, error) {
	switch cfg.Backend {
	case "memory":
		return checkpoint.NewInMemoryStore(), func() error { return nil }, nil
	case "sqlite":
		store, err := checkpoint.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "redis":
		store, err := checkpoint.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Options configures the AgentForge instance.
type Options struct {
	// Workflow is the compiled graph to execute. Defaults to the standard
	// agent-builder workflow over the configured models.
	Workflow *graph.Compiled

	// Store persists checkpoints (defaults to in-memory if not provided).
	Store core.CheckpointStore

	// Primary is the model used by generation nodes. Defaults to a model
	// built from Config.
	Primary model.Model

	// Reasoner is the model used by planning-heavy nodes. Defaults to
	// Primary.
	Reasoner model.Model

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// Spans and Metrics enable OpenTelemetry instrumentation. Defaults to
	// the no-op implementations.
	Spans   observability.SpanManager
	Metrics observability.MetricsRecorder
}

// AgentForge is the high-level façade aggregating engine and gateway.
type AgentForge struct {
	cfg     *config.Config
	engine  *engine.Engine
	gateway *gateway.Gateway
	logger  logging.Logger
}

// New creates a new AgentForge instance from configuration with optional
// overrides. Any unset dependency is built from the configuration or an
// in-memory default.
func New(cfg *config.Config, optFns ...func(o *Options)) (*AgentForge, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	opts := Options{
		Store:   checkpoint.NewInMemoryStore(),
		Logger:  logging.NoOpLogger{},
		Spans:   observability.NoopSpanManager{},
		Metrics: observability.NoopMetrics{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Primary == nil {
		llm, err := NewModel(cfg.Model, cfg.Model.Primary)
		if err != nil {
			return nil, err
		}
		opts.Primary = llm
	}
	if opts.Reasoner == nil {
		if cfg.ReasonerModel() == cfg.Model.Primary {
			opts.Reasoner = opts.Primary
		} else {
			llm, err := NewModel(cfg.Model, cfg.ReasonerModel())
			if err != nil {
				return nil, err
			}
			opts.Reasoner = llm
		}
	}

	if opts.Workflow == nil {
		workflow, err := BuildWorkflow(opts.Primary, opts.Reasoner)
		if err != nil {
			return nil, err
		}
		opts.Workflow = workflow
	}

	eng := engine.New(opts.Workflow,
		engine.WithStore(opts.Store),
		engine.WithLogger(opts.Logger),
		engine.WithRetryPolicy(cfg.Engine.MaxAttempts, cfg.Engine.RetryBackoff),
		engine.WithObservability(opts.Spans, opts.Metrics),
		func(o *engine.Options) { o.MaxIterations = cfg.Engine.MaxIterations },
	)
	gw := gateway.New(eng, func(o *gateway.Options) {
		o.Logger = opts.Logger
	})

	return &AgentForge{
		cfg:     cfg,
		engine:  eng,
		gateway: gw,
		logger:  opts.Logger,
	}, nil
}

// Invoke starts one workflow turn and returns a Turn for incremental chunk
// consumption.
func (a *AgentForge) Invoke(ctx context.Context, req gateway.Request) (*gateway.Turn, error) {
	return a.gateway.Invoke(ctx, req)
}

// InvokeSync runs one workflow turn to a terminal state and returns the
// buffered response.
func (a *AgentForge) InvokeSync(ctx context.Context, req gateway.Request) (*gateway.Result, error) {
	return a.gateway.InvokeSync(ctx, req)
}

// Engine exposes the underlying engine for checkpoint introspection.
func (a *AgentForge) Engine() *engine.Engine { return a.engine }

// Server builds the HTTP front end for this instance.
func (a *AgentForge) Server() *gateway.Server {
	return gateway.NewServer(a.gateway, func(o *gateway.ServerOptions) {
		o.Logger = a.logger
	})
}
