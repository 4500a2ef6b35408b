package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quatton/qwex-trainer/pkg/kv"
	"github.com/quatton/qwex-trainer/pkg/qapi/config"
	"github.com/quatton/qwex-trainer/pkg/qart"
	"github.com/quatton/qwex-trainer/pkg/qlog"
	"github.com/quatton/qwex-trainer/pkg/qrunner"
	"github.com/quatton/qwex-trainer/pkg/qtrain"
)

type Services struct {
	Trainer *qtrain.Trainer
	Log     *qlog.Logger

	closers []func() error
}

func NewServices(cfg *config.EnvConfig) (*Services, error) {
	level, err := qlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := qlog.NewLogger(level, nil)

	svcs := &Services{Log: log}

	loader, err := svcs.newLoader(cfg)
	if err != nil {
		svcs.Close()
		return nil, err
	}

	opts := []qtrain.Option{
		qtrain.WithLogger(log.With("component", "trainer")),
		qtrain.WithStrictOverrides(cfg.StrictOverrides),
		qtrain.WithDefaultConfigRef(cfg.DefaultConfigPath),
	}
	if cfg.TrainerCommand != "" {
		opts = append(opts, qtrain.WithExecutor(newCommandExecutor(cfg, log)))
	}

	svcs.Trainer = qtrain.NewTrainer(loader, opts...)
	return svcs, nil
}

func newCommandExecutor(cfg *config.EnvConfig, log *qlog.Logger) *qrunner.CommandExecutor {
	opts := []qrunner.CommandExecutorOption{
		qrunner.WithArgs(cfg.TrainerArgs...),
		qrunner.WithWorkingDir(cfg.TrainerWorkdir),
		qrunner.WithLogger(log.With("component", "executor")),
	}
	if cfg.RunsBaseDir != "" {
		opts = append(opts, qrunner.WithBaseDir(cfg.RunsBaseDir))
	}
	return qrunner.NewCommandExecutor(cfg.TrainerCommand, opts...)
}

func (s *Services) newLoader(cfg *config.EnvConfig) (qtrain.ConfigLoader, error) {
	if cfg.LoaderMode != config.LoaderModeSource {
		return qtrain.NewStaticLoader(), nil
	}

	opts := []qtrain.SourceLoaderOption{
		qtrain.WithSource(qtrain.SchemeFile, qtrain.FileSource{Root: cfg.ConfigRoot}),
	}

	if cfg.S3Endpoint != "" {
		store, err := qart.NewS3Store(qart.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 config source: %w", err)
		}
		opts = append(opts, qtrain.WithSource(qtrain.SchemeS3, qtrain.ObjectSource{Store: store}))
	}

	if cfg.ValkeyAddr != "" {
		store, err := NewValkeyStore(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to valkey: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		opts = append(opts, qtrain.WithSource(qtrain.SchemeKV, qtrain.KVSource{Store: store}))
	}

	loader := qtrain.NewSourceLoader(opts...)
	s.Log.Info("config sources ready", "schemes", loader.Schemes())
	return loader, nil
}

// Close releases connections held by config sources.
func (s *Services) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// EmptyServices returns a container suitable for generating the OpenAPI
// document. Its trainer uses the static loader and discards logs.
func EmptyServices() *Services {
	log := qlog.NewLogger(slog.LevelError, nil)
	return &Services{
		Trainer: qtrain.NewTrainer(qtrain.NewStaticLoader(), qtrain.WithLogger(log)),
		Log:     log,
	}
}

// NewValkeyStore connects to the VALKEY_* endpoint, giving up after ten
// seconds or when ctx ends.
func NewValkeyStore(ctx context.Context, cfg *config.EnvConfig) (*kv.ValkeyStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return kv.NewValkeyStore(ctx, kv.ValkeyConfig{
		Addr:     cfg.ValkeyAddr,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	})
}
