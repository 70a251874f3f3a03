package server

import (
	"context"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/pkg/errors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/chatbot/internal/action"
	"github.com/Zereker/chatbot/internal/api/consumer"
	"github.com/Zereker/chatbot/internal/api/http"
	"github.com/Zereker/chatbot/internal/api/mcp"
	"github.com/Zereker/chatbot/internal/task"
	genkitpkg "github.com/Zereker/chatbot/pkg/genkit"
	"github.com/Zereker/chatbot/pkg/log"
	"github.com/Zereker/chatbot/pkg/mq"
	"github.com/Zereker/chatbot/pkg/redis"
	"github.com/Zereker/chatbot/pkg/vector"
)

const shutdownTimeout = 30 * time.Second

// Server represents the chatbot server
type Server struct {
	config   Config
	logger   *slog.Logger
	g        *genkit.Genkit
	store    vector.Store
	bot      *action.Chatbot
	runner   *task.Runner
	consumer *consumer.Consumer
	tracer   *sdktrace.TracerProvider
}

// NewServer creates a new server with the given configuration
func NewServer(conf Config) (*Server, error) {
	server := &Server{
		config: conf,
	}

	if err := server.initDepend(); err != nil {
		return nil, errors.WithMessage(err, "init server dependency failed")
	}

	server.initChatbot()

	if err := server.initConsumer(); err != nil {
		return nil, errors.WithMessage(err, "init consumer failed")
	}

	return server, nil
}

// initDepend initializes all dependencies
func (s *Server) initDepend() error {
	// Initialize log first
	if err := log.Init(s.config.Log); err != nil {
		return errors.WithMessage(err, "failed to init log")
	}

	// Create logger for this module
	s.logger = log.Logger("server")
	s.logger.Info("initializing dependencies")

	s.initTracing()

	ctx := context.Background()

	// Initialize Genkit with all configured models
	s.logger.Info("initializing genkit models")
	g, err := genkitpkg.Init(ctx, s.config.Models)
	if err != nil {
		return errors.WithMessage(err, "failed to init models")
	}
	s.g = g

	// Initialize vector store singleton
	s.logger.Info("initializing vector store", "backend", s.config.Vector.Backend)
	if err := vector.Init(s.config.Vector); err != nil {
		return errors.WithMessage(err, "failed to init vector store")
	}
	s.store = vector.NewStore()

	// Initialize Kafka message queue
	s.logger.Info("initializing message queue", "enabled", s.config.Kafka.Enabled)
	if err := mq.Init(s.config.Kafka); err != nil {
		return errors.WithMessage(err, "failed to init message queue")
	}

	// Initialize Redis
	s.logger.Info("initializing redis", "enabled", s.config.Redis.Enabled)
	if err := redis.Init(s.config.Redis); err != nil {
		return errors.WithMessage(err, "failed to init redis")
	}

	return nil
}

// initChatbot builds the pipelines and the job runner that executes them
func (s *Server) initChatbot() {
	s.logger.Info("initializing chatbot")
	s.bot = action.NewChatbot(s.g, s.store, s.config.Pipeline)

	var board task.Board = task.NewMemoryBoard()
	if client := redis.Client(); client != nil {
		board = task.NewRedisBoard(client, "chatbot", s.config.Redis.TTL())
	}

	var opts []task.Option
	if producer := mq.NewQueue(); producer != nil {
		opts = append(opts, task.WithPublisher(producer, s.config.Kafka.JobsTopic))
	}

	s.runner = task.NewRunner(board, opts...)
	s.runner.Register(task.KindUpsert, s.bot.Upsert)
	s.runner.Register(task.KindGetAnswer, s.bot.GetAnswer)
}

// initConsumer initializes the async task consumer
func (s *Server) initConsumer() error {
	s.logger.Info("initializing consumer")

	c, err := consumer.NewConsumer(s.runner.HandleMessage, s.config.Kafka)
	if err != nil {
		return errors.WithMessage(err, "failed to create consumer")
	}

	s.consumer = c
	return nil
}

// Start starts the server based on configuration mode
func (s *Server) Start() error {
	s.logger.Info("starting", "mode", s.config.Server.Mode, "port", s.config.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		s.logger.Info("received shutdown signal")
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)

	// Start consumer
	if s.consumer != nil {
		g.Go(func() error {
			return s.runConsumer(ctx)
		})
	}

	switch s.config.Server.Mode {
	case ModeHTTP:
		g.Go(func() error {
			return s.runHTTPServer(ctx)
		})
	case ModeMCP:
		g.Go(func() error {
			// stdin closing ends the process in mcp-only mode
			defer cancel()
			return s.runMCPServer(ctx)
		})
	case ModeBoth:
		g.Go(func() error {
			return s.runHTTPServer(ctx)
		})
		g.Go(func() error {
			return s.runMCPServer(ctx)
		})
	default:
		return errors.Errorf("unknown mode: %s", s.config.Server.Mode)
	}

	return g.Wait()
}

// Shutdown waits for in-flight jobs, then closes every client
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop consumer
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			s.logger.Error("failed to stop consumer", "error", err)
		}
	}

	if s.runner != nil {
		if err := s.runner.Shutdown(ctx); err != nil {
			s.logger.Warn("jobs still running at shutdown were cancelled", "error", err)
		}
	}

	if err := mq.NewQueue().Close(); err != nil {
		s.logger.Error("failed to close message queue", "error", err)
	}

	if err := redis.Close(); err != nil {
		s.logger.Error("failed to close redis", "error", err)
	}

	if err := vector.Close(); err != nil {
		s.logger.Error("failed to close vector store", "error", err)
	}

	if s.tracer != nil {
		if err := s.tracer.Shutdown(ctx); err != nil {
			s.logger.Error("failed to flush traces", "error", err)
		}
	}

	return nil
}

func (s *Server) runHTTPServer(ctx context.Context) error {
	serverCfg := http.DefaultServerConfig()
	serverCfg.Port = s.config.Server.Port
	serverCfg.CORSOrigin = s.config.Server.CORSOrigin

	srv := http.NewServer(s.runner, serverCfg)

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return errors.WithMessage(err, "http server error")
	}
	return nil
}

func (s *Server) runMCPServer(ctx context.Context) error {
	server := mcp.NewServer(s.runner, mcp.ServerConfig{
		Name:    "chatbot",
		Version: "0.1.0",
	})

	if err := server.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.WithMessage(err, "mcp server error")
	}
	return nil
}

// runConsumer starts the consumer and blocks until ctx is done.
// Shutdown owns stopping it.
func (s *Server) runConsumer(ctx context.Context) error {
	if err := s.consumer.Start(ctx); err != nil {
		return errors.WithMessage(err, "consumer start error")
	}

	<-ctx.Done()
	return nil
}
