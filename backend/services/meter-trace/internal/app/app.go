package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "ocppmeter/backend/libs/db"
	libredis "ocppmeter/backend/libs/redis"
	"ocppmeter/backend/services/meter-trace/internal/clients"
	"ocppmeter/backend/services/meter-trace/internal/config"
	"ocppmeter/backend/services/meter-trace/internal/emitter"
	"ocppmeter/backend/services/meter-trace/internal/pipeline"
	redisstore "ocppmeter/backend/services/meter-trace/internal/redis"
	"ocppmeter/backend/services/meter-trace/internal/repository"
	"ocppmeter/backend/services/meter-trace/internal/service"
	"ocppmeter/backend/services/meter-trace/internal/trace"
	"ocppmeter/backend/services/meter-trace/internal/ws"
)

// App wires all dependencies for one conversion run.
type App struct {
	cfg     *config.Config
	runID   string
	emitter *emitter.Multi
	db      *sql.DB
	redis   *redis.Client
	logger  *zap.Logger
}

// New builds the sinks selected in cfg. Connections are validated up front.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		runID:  uuid.NewString(),
		logger: logger,
	}
	a.logger = logger.With(zap.String("run_id", a.runID))

	emitters := make([]emitter.Emitter, 0, len(cfg.Sinks.Enabled))
	for _, name := range cfg.Sinks.Enabled {
		e, err := a.buildSink(ctx, name)
		if err != nil {
			a.emitter = emitter.NewMulti(emitters...)
			a.Close()
			return nil, fmt.Errorf("app: %s sink: %w", name, err)
		}
		emitters = append(emitters, e)
	}
	a.emitter = emitter.NewMulti(emitters...)

	return a, nil
}

func (a *App) buildSink(ctx context.Context, name string) (emitter.Emitter, error) {
	cfg := a.cfg
	switch name {
	case config.SinkLog:
		return emitter.NewLogEmitter(a.logger.Named("channels")), nil

	case config.SinkPostgres:
		sqlDB, err := libdb.NewPostgresDB(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = sqlDB
		repo := repository.NewChannelSampleRepository(sqlDB)
		if cfg.Database.EnsureSchema {
			if err := repo.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}
		return emitter.NewPostgresEmitter(repo, a.runID), nil

	case config.SinkRedis:
		client, err := libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.redis = client
		store := redisstore.NewStore(client, cfg.Redis.Stream, cfg.Redis.MaxLen, cfg.Redis.TTL)
		return emitter.NewRedisEmitter(store, a.runID), nil

	case config.SinkHTTP:
		client := clients.NewTelemetryClient(cfg.Telemetry.URL, cfg.TelemetryTimeout(), a.logger)
		return emitter.NewHTTPEmitter(client, a.runID), nil

	case config.SinkWebSocket:
		var token string
		if cfg.Viewer.JWTSecret != "" {
			var err error
			token, err = service.NewTokenService(cfg.Viewer.JWTSecret, cfg.Viewer.JWTIssuer, 0).GenerateToken(a.runID)
			if err != nil {
				return nil, err
			}
		}
		conn, err := ws.DialViewer(ctx, ws.DialOptions{
			URL:          cfg.Viewer.URL,
			BearerToken:  token,
			WriteTimeout: cfg.ViewerWriteTimeout(),
		}, a.logger)
		if err != nil {
			return nil, err
		}
		return emitter.NewWebSocketEmitter(conn, a.runID), nil
	}
	return nil, errors.New("unknown sink")
}

// RunID identifies this run in every sink.
func (a *App) RunID() string {
	return a.runID
}

// Run converts the given files, or every trace file under the configured directory when files is empty.
func (a *App) Run(ctx context.Context, files []string) (pipeline.Stats, error) {
	if len(files) == 0 {
		found, err := trace.Discover(a.cfg.Trace.Directory, a.logger)
		if err != nil {
			return pipeline.Stats{}, err
		}
		files = found
	}
	if len(files) == 0 {
		a.logger.Warn("no trace files found", zap.String("directory", a.cfg.Trace.Directory))
		return pipeline.Stats{}, nil
	}

	a.logger.Info("converting trace files",
		zap.Int("files", len(files)),
		zap.Strings("sinks", a.cfg.Sinks.Enabled),
		zap.Bool("strict_timestamps", a.cfg.Conversion.StrictTimestamps),
	)

	converter := pipeline.NewConverter(a.emitter, pipeline.Options{
		StrictTimestamps: a.cfg.Conversion.StrictTimestamps,
	}, a.logger)

	err := converter.ConvertFiles(ctx, files)
	stats := converter.Stats()
	if err != nil {
		a.logger.Error("conversion aborted", append(stats.Fields(), zap.Error(err))...)
		return stats, err
	}

	a.logger.Info("conversion finished", stats.Fields()...)
	return stats, nil
}

// Close releases sinks and connections.
func (a *App) Close() {
	if a.emitter != nil {
		if err := a.emitter.Close(); err != nil {
			a.logger.Warn("failed to close sinks", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
