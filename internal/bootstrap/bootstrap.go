package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/erp-document-processor/internal/config"
	"github.com/kirillkom/erp-document-processor/internal/core/ports"
	"github.com/kirillkom/erp-document-processor/internal/core/usecase"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/erp"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/export"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/extractor/document"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/llm/bedrock"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/resilience"
	"github.com/kirillkom/erp-document-processor/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Processor   ports.DocumentProcessor
	Interpreter ports.ResponseInterpreter
	Dispatcher  ports.ERPDispatcher
	Exporters   map[string]ports.TransformedDataExporter

	closeFns []func()
}

// New wires the pipeline against the configured inference provider and ERP sink.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, service string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.NewHTTPServerMetrics(service)
	app := &App{Config: cfg, Logger: logger, Metrics: m}

	inferenceExec := resilience.NewExecutor(
		resilience.InferenceConfig(cfg.InferenceRetryMaxAttempts, cfg.InferenceBreakerEnabled),
		logger, m.RecordBreakerTransition,
	)
	publishExec := resilience.NewExecutor(resilience.PublishConfig(), logger, m.RecordBreakerTransition)

	invoker, err := newInvoker(ctx, cfg, inferenceExec, m, logger)
	if err != nil {
		return nil, err
	}

	sink, closeSink, err := newSink(ctx, cfg, publishExec, logger)
	if err != nil {
		return nil, err
	}
	if closeSink != nil {
		app.closeFns = append(app.closeFns, closeSink)
	}

	interpreter := usecase.NewInterpreter()
	app.Interpreter = interpreter
	app.Processor = usecase.NewProcessDocumentUseCase(document.NewExtractor(), invoker, interpreter, m, logger)
	app.Dispatcher = usecase.NewDispatchUseCase(sink, logger)
	app.Exporters = map[string]ports.TransformedDataExporter{
		"json": export.NewJSONExporter(),
		"xlsx": export.NewXLSXExporter(),
	}

	logger.Info("app_initialized",
		"inference_provider", cfg.InferenceProvider,
		"erp_sink", cfg.ERPSink,
		"pipeline_max_concurrent", cfg.PipelineMaxConcurrent,
	)
	return app, nil
}

func newInvoker(
	ctx context.Context,
	cfg config.Config,
	executor *resilience.Executor,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) (ports.InferenceInvoker, error) {
	switch cfg.InferenceProvider {
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
			Executor: executor,
			Usage:    m,
			Logger:   logger,
		}), nil
	case config.ProviderBedrock:
		client, err := bedrock.NewRuntimeClient(ctx, bedrock.ClientConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			SessionToken:    cfg.AWSSessionToken,
			Endpoint:        cfg.BedrockEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("init bedrock client: %w", err)
		}
		return bedrock.NewInvoker(client, cfg.BedrockModelID, bedrock.Options{
			Executor: executor,
			Usage:    m,
			Logger:   logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.InferenceProvider)
	}
}

func newSink(
	ctx context.Context,
	cfg config.Config,
	executor *resilience.Executor,
	logger *slog.Logger,
) (ports.ERPSink, func(), error) {
	switch cfg.ERPSink {
	case config.SinkNATS:
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init erp queue: %w", err)
		}
		return queue, queue.Close, nil
	case config.SinkPostgres:
		outbox, closeDB, err := OpenOutbox(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return outbox, closeDB, nil
	default:
		return erp.NewLogSink(logger), nil, nil
	}
}

// OpenOutbox connects to Postgres and makes sure the erp_outbox table exists.
func OpenOutbox(ctx context.Context, cfg config.Config) (*postgres.ERPOutboxRepository, func(), error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	outbox := postgres.NewERPOutboxRepository(db)
	if err := outbox.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return outbox, func() { _ = db.Close() }, nil
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
}
