package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/arbiter"
	"main/internal/book"
	"main/internal/bus"
	"main/internal/feed"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/persistence"
	"main/pkg/conn"
	"main/pkg/exception"
)

const defaultQueueCapacity = 1024

func main() {
	configPath := flag.String("config", "config/relay.json", "Path to JSON config")
	positionsPath := flag.String("positions", "", "Position snapshot to restore on start (optional)")
	metricsInterval := flag.Duration("metrics-interval", 30*time.Second, "Counter log interval (0=disable)")
	profile := flag.Bool("profile", false, "Enable pyroscope profiling")
	profileAddr := flag.String("profile-addr", "http://localhost:4040", "Pyroscope server address")
	flag.Parse()

	if err := run(*configPath, *positionsPath, *metricsInterval, *profile, *profileAddr); err != nil {
		log.Fatalf("relay: %v", err)
	}
}

func run(configPath, positionsPath string, metricsInterval time.Duration, profile bool, profileAddr string) error {
	loaded, err := ops.Load(configPath)
	if err != nil {
		return err
	}

	if profile {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "relay",
			ServerAddress:   profileAddr,
			Tags: map[string]string{
				"env": os.Getenv("ENV"),
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseObjects,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := obs.NewMetrics()
	primaryBook := book.NewTopOfBook(loaded.Primary.Source)
	secondaryBook := book.NewTopOfBook(loaded.Secondary.Source)
	positions := book.NewPositionBook()

	if positionsPath != "" {
		snapshot, err := book.ReadPositionSnapshot(positionsPath)
		if err != nil {
			return err
		}
		positions.Restore(snapshot)
		logs.Infof("restored %d open positions", len(snapshot))
	}

	capacity := loaded.QueueCapacity
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	queue := bus.NewQueue(capacity)
	defer queue.Close()

	arb := arbiter.New(primaryBook, secondaryBook, countingSink{queue: queue, metrics: metrics},
		arbiter.WithTolerance(loaded.Tolerance),
		arbiter.WithMetrics(metrics),
	)
	defer arb.Close()

	var writer *persistence.Writer
	if loaded.Postgres != nil {
		client, err := conn.New(conn.Option{
			Host:     loaded.Postgres.Host,
			Port:     loaded.Postgres.Port,
			User:     loaded.Postgres.User,
			Password: loaded.Postgres.Password,
			Database: loaded.Postgres.Database,
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Close()
		}()

		writer, err = persistence.NewWriter(client)
		if err != nil {
			return err
		}
	}

	go queue.Run(ctx, func(event model.Dissonance) {
		if writer == nil {
			return
		}
		if err := writer.RecordDissonance(event); err != nil {
			logs.Errorf("record dissonance, symbol: %s, err: %+v", event.Symbol, err)
		}
	})

	if writer != nil && loaded.SyncInterval > 0 {
		go syncPositions(ctx, positions, writer, metrics, loaded.SyncInterval)
	}

	for _, spec := range []ops.FeedSpec{loaded.Primary, loaded.Secondary} {
		tob := primaryBook
		if spec.Source == loaded.Secondary.Source {
			tob = secondaryBook
		}
		if err := startFeed(ctx, spec, tob, metrics); err != nil {
			return err
		}
	}

	if metricsInterval > 0 {
		go logMetrics(ctx, metrics, metricsInterval)
	}

	logs.Infof("relay running, primary: %s, secondary: %s", loaded.Primary.Source, loaded.Secondary.Source)
	<-sys.Shutdown()
	return nil
}

// countingSink forwards dissonances to the queue and counts full-queue drops
// separately from other sink failures.
type countingSink struct {
	queue   *bus.Queue
	metrics *obs.Metrics
}

func (s countingSink) Publish(event model.Dissonance) error {
	err := s.queue.Publish(event)
	if errors.Is(err, bus.ErrQueueFull) {
		s.metrics.IncQueueDrop()
	}
	return err
}

func startFeed(ctx context.Context, spec ops.FeedSpec, tob *book.TopOfBook, metrics *obs.Metrics) error {
	f, err := newFeed(ctx, spec)
	if err != nil {
		return err
	}
	if err := f.StartWebsocket(ctx); err != nil {
		return err
	}
	for _, symbol := range spec.Symbols {
		if err := f.SubscribeQuotes(ctx, symbol); err != nil {
			return err
		}
		logs.Infof("subscribed %s quotes, symbol: %s", spec.Source, symbol)
	}
	feed.Relay(ctx, f, tob, metrics)
	return nil
}

func newFeed(ctx context.Context, spec ops.FeedSpec) (feed.Feed, error) {
	switch spec.Source {
	case enum.SourceBTCC:
		return feed.NewBtccFeed(ctx, spec.DevMode), nil
	case enum.SourceBinance:
		return feed.NewBinanceFeed(ctx), nil
	default:
		return nil, exception.ErrFeedUnknownSource
	}
}

func syncPositions(ctx context.Context, positions *book.PositionBook, writer *persistence.Writer, metrics *obs.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writer.SyncPositions(positions.Positions()); err != nil {
				logs.Errorf("sync positions, err: %+v", err)
				continue
			}
			metrics.IncPositionSync()
		}
	}
}

func logMetrics(ctx context.Context, metrics *obs.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := metrics.Snapshot()
			logs.Infof("quotes: %v, comparisons: %d, dissonances: %d, skipped: %d, sink errors: %d, drops: %d",
				snap.QuoteCounts, snap.Comparisons, snap.Dissonances, snap.Skipped, snap.SinkErrors, snap.QueueDrops)
		}
	}
}
