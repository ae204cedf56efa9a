package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ideonhq/ideon/pkg/cmd"
	"github.com/ideonhq/ideon/pkg/log"
	"github.com/ideonhq/ideon/pkg/otelhelper"
	"github.com/ideonhq/ideon/pkg/protocol"
	"github.com/ideonhq/ideon/pkg/registry"
)

func main() {
	command := &cli.Command{
		Name:                  "ideon-worker",
		Usage:                 "Start a worker that executes graph runs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for graph persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for run locks, summaries and traces (in-process when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing component plugins",
				Value:   "./plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "step-executor",
				Usage:   "Step executor that performs nodes (template, openai, http_request)",
				Value:   "template",
				Sources: cli.EnvVars("STEP_EXECUTOR"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for the openai step executor",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-model",
				Usage:   "Model for the openai step executor",
				Sources: cli.EnvVars("OPENAI_MODEL"),
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "Custom base URL for OpenAI-compatible providers",
				Sources: cli.EnvVars("OPENAI_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "http-url",
				Usage:   "Request URL template for the http_request step executor",
				Sources: cli.EnvVars("HTTP_STEP_URL"),
			},
			&cli.StringFlag{
				Name:    "run-queue",
				Usage:   "Redis list to consume run requests from (disabled when empty)",
				Sources: cli.EnvVars("RUN_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "run-topic",
				Usage:   "Kafka topic to consume run requests from (disabled when empty)",
				Sources: cli.EnvVars("RUN_TOPIC"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker addresses for the kafka trigger",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression that requests runs for --schedule-graph",
				Sources: cli.EnvVars("SCHEDULE_CRON"),
			},
			&cli.StringFlag{
				Name:    "schedule-graph",
				Usage:   "Graph ID the --schedule expression runs",
				Sources: cli.EnvVars("SCHEDULE_GRAPH_ID"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export run and node spans over OTLP",
				Value:   false,
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("ideon-worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Ideon worker")

			var tracer oteltrace.Tracer = noop.NewTracerProvider().Tracer("ideon-worker")
			if command.Bool("otel") {
				otlpTracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "ideon-worker")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				tracer = otlpTracer

				defer func() {
					if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
						logger.Error("Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			reg := cmd.NewRegistry(logger, command.String("plugins-path"))

			executor, err := buildStepExecutor(ctx, reg, command, logger)
			if err != nil {
				return err
			}

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "worker", logger)
			if err != nil {
				return fmt.Errorf("failed to create event bus: %w", err)
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to create persistence: %w", err)
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			store, err := cmd.NewCacheStore(ctx, command.String("redis-url"))
			if err != nil {
				return fmt.Errorf("failed to create cache store: %w", err)
			}

			defer func() {
				if err := store.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close cache store", "error", err)
				}
			}()

			recorder, err := cmd.NewTraceRecorder(ctx, command.String("redis-url"))
			if err != nil {
				return fmt.Errorf("failed to create trace recorder: %w", err)
			}

			defer func() {
				if err := recorder.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close trace recorder", "error", err)
				}
			}()

			worker := NewWorkerManager(
				workerID,
				logger,
				persistence,
				eventBus,
				store,
				recorder,
				executor,
				tracer,
			)

			if err := addTriggers(ctx, reg, command, worker); err != nil {
				return err
			}

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func buildStepExecutor(ctx context.Context, reg *registry.Registry, command *cli.Command, logger *slog.Logger) (protocol.StepExecutor, error) {
	executorID := command.String("step-executor")

	config := map[string]any{}

	switch executorID {
	case "openai":
		if key := command.String("openai-api-key"); key != "" {
			config["api_key"] = key
		}

		if model := command.String("openai-model"); model != "" {
			config["model"] = model
		}

		if baseURL := command.String("openai-base-url"); baseURL != "" {
			config["base_url"] = baseURL
		}
	case "http_request":
		if url := command.String("http-url"); url != "" {
			config["url"] = url
		}
	}

	executor, err := reg.CreateStepExecutor(ctx, executorID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create step executor %q: %w", executorID, err)
	}

	logger.InfoContext(ctx, "Step executor ready", "executor", executorID)

	return executor, nil
}

func addTriggers(ctx context.Context, reg *registry.Registry, command *cli.Command, worker *WorkerManager) error {
	if queueName := command.String("run-queue"); queueName != "" {
		config := map[string]any{
			"queue":      queueName,
			"connection": redisConnection(command.String("redis-url")),
		}

		trigger, err := reg.CreateTrigger(ctx, "queue", config)
		if err != nil {
			return fmt.Errorf("failed to create queue trigger: %w", err)
		}

		worker.AddTrigger("queue", trigger)
	}

	if topic := command.String("run-topic"); topic != "" {
		config := map[string]any{
			"topic": topic,
		}

		if brokers := command.String("kafka-brokers"); brokers != "" {
			config["brokers"] = brokers
		}

		trigger, err := reg.CreateTrigger(ctx, "kafka", config)
		if err != nil {
			return fmt.Errorf("failed to create kafka trigger: %w", err)
		}

		worker.AddTrigger("kafka", trigger)
	}

	if cronExpr := command.String("schedule"); cronExpr != "" {
		config := map[string]any{
			"cron":     cronExpr,
			"graph_id": command.String("schedule-graph"),
		}

		trigger, err := reg.CreateTrigger(ctx, "schedule", config)
		if err != nil {
			return fmt.Errorf("failed to create schedule trigger: %w", err)
		}

		worker.AddTrigger("schedule", trigger)
	}

	return nil
}

// redisConnection translates the worker's redis URL into the queue trigger's
// connection settings.
func redisConnection(redisURL string) map[string]any {
	connection := map[string]any{}

	if redisURL == "" {
		return connection
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return connection
	}

	connection["addr"] = opts.Addr
	if opts.Password != "" {
		connection["password"] = opts.Password
	}

	connection["db"] = strconv.Itoa(opts.DB)

	return connection
}
