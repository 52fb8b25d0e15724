package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"bistro/api/grpcserver"
	"bistro/catalog"
	"bistro/config"
	"bistro/domain/menu"
	"bistro/infra/kafka"
	"bistro/infra/logging"
	"bistro/infra/outbox"
	"bistro/infra/redisseq"
	"bistro/infra/sequence"
	"bistro/infra/storage"
	"bistro/infra/storage/filestore"
	"bistro/infra/storage/pebblestore"
	"bistro/infra/storage/sqlitestore"
	"bistro/infra/users"
	"bistro/jobs/broadcaster"
	"bistro/jobs/sweeper"
	"bistro/metrics"
	"bistro/service"
	"bistro/session"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "YAML config file")
		addr       = pflag.String("addr", "", "gRPC listen address")
		backend    = pflag.String("backend", "", "storage backend: file, pebble or sqlite")
		dataDir    = pflag.String("data", "", "data directory")
		usersFile  = pflag.String("users", "", "users file (JSON or YAML)")
		logLevel   = pflag.String("log-level", "", "log level")
		events     = pflag.Bool("events", false, "publish order events to Kafka")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	flags := pflag.CommandLine
	if flags.Changed("addr") {
		cfg.Server.Addr = *addr
	}
	if flags.Changed("backend") {
		cfg.Storage.Backend = storage.Kind(*backend)
	}
	if flags.Changed("data") {
		cfg.Storage.Dir = *dataDir
	}
	if flags.Changed("users") {
		cfg.Users.File = *usersFile
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if flags.Changed("events") {
		cfg.Events.Enabled = *events
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	log, err := logging.NewLogger("bistro", cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fatal(err)
	}

	err = run(cfg, log)
	if err != nil {
		log.Error("server exited", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	// ---------------- Users ----------------

	dir, err := users.Load(cfg.Users.File)
	if err != nil {
		return err
	}
	log.Info("users loaded", zap.Int("count", dir.Len()), zap.String("file", cfg.Users.File))

	// ---------------- Catalog ----------------

	be, err := openBackend(cfg.Storage)
	if err != nil {
		return err
	}
	seed, err := seedMenu(cfg.Storage.SeedMenu)
	if err != nil {
		return err
	}
	store, err := catalog.Open(ctx, be, seed, log.Named("catalog"))
	if err != nil {
		be.Close()
		return err
	}
	defer store.Close()
	m.Gauge("menu_items", "Items on the published menu.", func() float64 {
		return float64(store.Menu().ItemCount())
	})

	// ---------------- Order ids ----------------

	seqGen := sequence.New(0)
	lastSeq, err := service.ResumeSequence(ctx, store, seqGen, log)
	if err != nil {
		return err
	}
	var alloc service.Allocator = seqGen
	if cfg.OrderIDs.Source == config.SourceRedis {
		r := cfg.OrderIDs.Redis
		ra, err := redisseq.Open(ctx, redisseq.Config{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Key:      r.Key,
			PoolSize: r.PoolSize,
		}, lastSeq, log)
		if err != nil {
			return err
		}
		defer ra.Close()
		alloc = ra
	}

	// ---------------- Sessions ----------------

	sessions := session.NewRegistry(session.WithTTL(cfg.Auth.SessionTTL))
	defer sessions.Close()
	m.Gauge("sessions", "Stored sessions.", func() float64 { return float64(sessions.Len()) })

	// ---------------- Services ----------------

	authOpts := []service.AuthOption{
		service.WithAuthLogger(log.Named("auth")),
		service.WithAuthMetrics(m),
	}
	var throttle *service.Throttle
	if cfg.Auth.Throttle {
		throttle = service.NewThrottle(cfg.Auth.ThrottleCap)
		authOpts = append(authOpts, service.WithThrottle(throttle))
	}
	authSvc := service.NewAuthService(dir, sessions, authOpts...)
	menuSvc := service.NewMenuService(store, sessions, m, log.Named("menu"))

	orderOpts := []service.OrderOption{
		service.WithOrderLogger(log.Named("orders")),
		service.WithOrderMetrics(m),
	}

	// ---------------- Background Jobs ----------------

	var jobs []func()
	if cfg.Auth.SessionTTL > 0 || throttle != nil {
		sw := sweeper.New(sessions, cfg.Auth.SweepInterval, log.Named("sweeper"))
		if throttle != nil {
			sw.Add("login-throttle", throttle)
		}
		jobs = append(jobs, func() { sw.Run(ctx) })
	}

	if cfg.Events.Enabled {
		ob, err := outbox.Open(cfg.Events.OutboxDir)
		if err != nil {
			return err
		}
		defer ob.Close()
		orderOpts = append(orderOpts, service.WithEventSink(ob))

		pub, err := newPublisher(cfg.Events)
		if err != nil {
			return err
		}
		bc := broadcaster.New(ob, pub, cfg.Events.Interval, log.Named("broadcaster"), m)
		defer bc.Close()
		jobs = append(jobs, func() { bc.Run(ctx) })
	}

	orderSvc := service.NewOrderService(store, alloc, sessions, orderOpts...)

	var wg sync.WaitGroup
	for _, job := range jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			job()
		}()
	}
	// Jobs stop before the stores they use are closed.
	defer func() {
		cancel()
		wg.Wait()
	}()

	// ---------------- Metrics ----------------

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer metricsSrv.Close()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}

	grpcSrv := grpc.NewServer(grpcserver.ServerOptions(grpcserver.Options{
		Workers:              cfg.Server.Workers,
		MaxConcurrentStreams: cfg.Server.MaxConcurrentStreams,
		Log:                  log.Named("grpc"),
		Metrics:              m,
	})...)
	grpcserver.NewServer(authSvc, menuSvc, orderSvc).Register(grpcSrv)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		grpcSrv.GracefulStop()
	}()

	log.Info("bistro running",
		zap.String("addr", lis.Addr().String()),
		zap.String("backend", string(cfg.Storage.Backend)),
		zap.Uint64("last_seq", lastSeq),
	)
	return grpcSrv.Serve(lis)
}

func openBackend(cfg config.StorageConfig) (storage.Backend, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case storage.KindPebble:
		return pebblestore.Open(filepath.Join(cfg.Dir, "catalog"))
	case storage.KindSQLite:
		return sqlitestore.Open(filepath.Join(cfg.Dir, "bistro.db"))
	default:
		return filestore.Open(cfg.Dir)
	}
}

func seedMenu(path string) (menu.Menu, error) {
	if path == "" {
		return menu.Empty(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return menu.Menu{}, err
	}
	return menu.UnmarshalDocument(data)
}

func newPublisher(cfg config.EventsConfig) (broadcaster.Publisher, error) {
	if cfg.Client == config.ClientKafkaGo {
		return kafka.NewProducer(cfg.Brokers, cfg.Topic), nil
	}
	return broadcaster.NewSaramaPublisher(cfg.Brokers, cfg.Topic)
}

func fatal(err error) {
	os.Stderr.WriteString("bistro: " + err.Error() + "\n")
	os.Exit(1)
}
