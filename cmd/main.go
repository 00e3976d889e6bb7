package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rushhourgame/spatial/featureflag"
	spatialhttp "github.com/rushhourgame/spatial/http"
	"github.com/rushhourgame/spatial/models"
	"github.com/rushhourgame/spatial/modules"
	"github.com/rushhourgame/spatial/modules/collision"
	"github.com/rushhourgame/spatial/modules/traffic"
	"github.com/rushhourgame/spatial/smoketest"
	"github.com/rushhourgame/spatial/spatial"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The server version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "spatial_info",
		Help:        "Spatial server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr                string        `cli:""        env:"SPATIAL_ADDR"                  help:"Listening address for queries."`
	AdminAddr           string        `cli:""        env:"SPATIAL_ADMIN_ADDR"            help:"Admin listening address."`
	LogLevel            string        `cli:""        env:"SPATIAL_LOG_LEVEL"             help:"Log level (debug|info|warning|error)."`
	LogIndent           bool          `cli:""        env:"SPATIAL_LOG_INDENT"            help:"Indent logs."`
	CellSize            float64       `cli:""        env:"SPATIAL_CELL_SIZE"             help:"The size of a hash grid cell."`
	TreeMinChildren     int           `cli:",hidden" env:"SPATIAL_TREE_MIN_CHILDREN"     help:"The minimum number of children of an R-tree node."`
	TreeMaxChildren     int           `cli:",hidden" env:"SPATIAL_TREE_MAX_CHILDREN"     help:"The maximum number of children of an R-tree node."`
	NearestMaxDistance  float64       `cli:""        env:"SPATIAL_NEAREST_MAX_DISTANCE"  help:"The default search radius of nearest queries."`
	FrameDuration       time.Duration `cli:",hidden" env:"SPATIAL_FRAME_DURATION"        help:"The duration of a world frame."`
	StatsStreamInterval time.Duration `cli:",hidden" env:"SPATIAL_STATS_STREAM_INTERVAL" help:"The duration between each message of the stats stream."`
	AuthSecret          string        `cli:",hidden" env:"SPATIAL_AUTH_SECRET"           help:"The secret used to verify query tokens. Queries are not authenticated when empty."`
	Traffic             trafficConfig `cli:""        env:"-"                             help:"Traffic configuration."`
	Events              eventsConfig  `cli:",hidden" env:"-"                             help:"Event pusher configuration."`
	FeatureFlags        []string      `cli:",hidden" env:"SPATIAL_FEATURE_FLAGS"         help:"Comma separated feature flags"`
	Version             bool          `cli:""        env:"-"                             help:"Show version."`
	Help                bool          `cli:""        env:"-"                             help:"Show help."`
}

type trafficConfig struct {
	Entities  int     `cli:"" env:"SPATIAL_TRAFFIC_ENTITIES"   help:"The number of entities to spawn."`
	WorldSize float64 `cli:"" env:"SPATIAL_TRAFFIC_WORLD_SIZE" help:"The side of the square entities move within."`
	MaxSpeed  float64 `cli:"" env:"SPATIAL_TRAFFIC_MAX_SPEED"  help:"The maximum speed of moving entities, in units per second."`
	Seed      uint64  `cli:"" env:"SPATIAL_TRAFFIC_SEED"       help:"The random seed."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"SPATIAL_EVENTS_ENDPOINT"       help:"Endpoint to where log events are pushed. Disabled when empty."`
	FlushInterval time.Duration `cli:",hidden" env:"SPATIAL_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"SPATIAL_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"SPATIAL_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:                ":4000",
		AdminAddr:           ":18190",
		LogLevel:            logs.InfoLevel.String(),
		CellSize:            spatial.DefaultCellSize,
		TreeMinChildren:     spatial.DefaultTreeMinChildren,
		TreeMaxChildren:     spatial.DefaultTreeMaxChildren,
		NearestMaxDistance:  spatial.DefaultNearestMaxDistance,
		FrameDuration:       time.Millisecond * 50,
		StatsStreamInterval: time.Second,
		Traffic: trafficConfig{
			Entities:  traffic.DefaultEntities,
			WorldSize: traffic.DefaultWorldSize,
			MaxSpeed:  traffic.DefaultMaxSpeed,
			Seed:      uint64(time.Now().UnixNano()),
		},
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts a spatial index server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "spatial",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	featureFlags := featureflag.New(conf.FeatureFlags)

	spatialOptions := []spatial.Option{
		spatial.WithCellSize(conf.CellSize),
		spatial.WithTreeChildren(conf.TreeMinChildren, conf.TreeMaxChildren),
		spatial.WithNearestMaxDistance(conf.NearestMaxDistance),
	}
	featureFlags.IfSet(featureflag.FlagCoarseCandidates, func() {
		spatialOptions = append(spatialOptions, spatial.WithCoarseCandidates())
	})

	world := models.NewWorld(conf.FrameDuration, spatialOptions...)

	var worldModules []modules.Module
	featureFlags.IfNotSet(featureflag.FlagDisableTraffic, func() {
		worldModules = append(worldModules, &traffic.Module{
			Entities:  conf.Traffic.Entities,
			WorldSize: conf.Traffic.WorldSize,
			MaxSpeed:  conf.Traffic.MaxSpeed,
			Seed:      conf.Traffic.Seed,
		})
	})
	featureFlags.IfNotSet(featureflag.FlagDisableCollisions, func() {
		worldModules = append(worldModules, &collision.Module{})
	})

	detach := modules.Attach(world, worldModules...)
	defer func() {
		world.Close()
		detach()
	}()

	var ready atomic.Bool
	go func() {
		ready.Store(true)
		world.StartDispatchFrames()
	}()
	readinessCheck := func() bool {
		return ready.Load()
	}

	var service http.ServeMux
	service.Handle("/health", spatialhttp.HandleWithCORS(http.HandlerFunc(spatialhttp.HandleHealthCheck)))
	service.Handle("/version", spatialhttp.HandleWithCORS(spatialhttp.HandleVersion(version)))
	service.Handle("/ready", spatialhttp.HandleWithCORS(spatialhttp.HandleReadyCheck(readinessCheck)))
	service.Handle("/stats", spatialhttp.HandleWithCORS(spatialhttp.HandleStats(world)))

	authSecret := []byte(conf.AuthSecret)
	authenticated := func(h http.Handler) http.Handler {
		return spatialhttp.HandleWithCORS(spatialhttp.VerifyAuthTokenHandler(authSecret, h))
	}

	featureFlags.IfNotSet(featureflag.FlagDisableQueryAPI, func() {
		service.Handle("/query/point", authenticated(spatialhttp.HandleQueryPoint(world)))
		service.Handle("/query/range", authenticated(spatialhttp.HandleQueryRange(world)))
		service.Handle("/query/nearest", authenticated(spatialhttp.HandleQueryNearest(world)))
		service.Handle("/query/type", authenticated(spatialhttp.HandleQueryByType(world)))
	})

	featureFlags.IfNotSet(featureflag.FlagDisableStatsStream, func() {
		service.Handle("/stream", websocket.Server{
			Handshake: spatialhttp.VerifyAuthToken(authSecret),
			Handler:   spatialhttp.HandleStatsStream(ctx, world, conf.StatsStreamInterval),
		})
	})

	service.Handle("/ping", websocket.Server{
		Handler: spatialhttp.HandlePing,
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", spatialhttp.HandleHealthCheck)
	admin.HandleFunc("/ready", spatialhttp.HandleReadyCheck(readinessCheck))
	admin.HandleFunc("/debug/spatial", spatialhttp.HandleDebugInfo(world))
	admin.HandleFunc("/smoke-test", smoketest.HandleSmokeTest(world, spatialOptions...))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("world", world.UUID).
		WithTag("cell_size", conf.CellSize).
		WithTag("frame_duration", conf.FrameDuration).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting spatial server")

	spatialhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			spatialhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if conf.CellSize <= 0 {
		return errors.New("cell size must be greater than zero").
			WithTag("cell_size", conf.CellSize)
	}

	if conf.TreeMinChildren < 1 || conf.TreeMaxChildren < conf.TreeMinChildren*2 {
		return errors.New("tree max children must be at least twice the min children").
			WithTag("min_children", conf.TreeMinChildren).
			WithTag("max_children", conf.TreeMaxChildren)
	}

	if conf.FrameDuration <= 0 {
		return errors.New("frame duration must be greater than zero").
			WithTag("frame_duration", conf.FrameDuration)
	}

	if conf.StatsStreamInterval <= 0 {
		return errors.New("stats stream interval must be greater than zero").
			WithTag("interval", conf.StatsStreamInterval)
	}

	return nil
}
