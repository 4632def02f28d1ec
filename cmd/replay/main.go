// Command replay dispatches a recorded log of host events against a SQLite
// host store and writes one outcome record per event. It runs the same
// triggers as the service, which makes it useful for backfills and for
// checking trigger changes against captured traffic.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -events data/events.jsonl \
//	  -store triggers.db \
//	  -out outcomes.json \
//	  -at 2025-03-14T09:00:00Z
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/crm-trigger-service/internal/adapter/nominatim"
	"github.com/couchcryptid/crm-trigger-service/internal/adapter/sqlite"
	"github.com/couchcryptid/crm-trigger-service/internal/config"
	"github.com/couchcryptid/crm-trigger-service/internal/dispatcher"
	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/i18n"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
	"github.com/couchcryptid/crm-trigger-service/internal/trigger"
	"github.com/jonboulle/clockwork"
)

const maxLineBytes = 1 << 20

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	eventsPath := flag.String("events", "", "JSON-lines file of host events")
	storePath := flag.String("store", "", "SQLite host store")
	outPath := flag.String("out", "", "output path for outcome records (default stdout)")
	at := flag.String("at", "", "RFC3339 time to stamp records with, for reproducible output")
	locale := flag.String("locale", "en_US", "default locale for activity labels")
	kit := flag.Bool("kit-descriptions", false, "copy kit component descriptions onto quote lines")
	geocoderURL := flag.String("geocoder-url", "", "Nominatim base URL; geocoding is off when empty")
	flag.Parse()

	if *eventsPath == "" || *storePath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -events, -store")
	}

	clk := clockwork.NewRealClock()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid -at: %w", err)
		}
		fake := clockwork.NewFakeClockAt(t)
		domain.SetClock(fake)
		defer domain.SetClock(nil)
		clk = fake
	}

	ctx := context.Background()
	store, err := sqlite.Open(ctx, *storePath)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := i18n.LoadEmbedded(*locale)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetricsForTesting()

	var geocoder domain.Geocoder
	if *geocoderURL != "" {
		cfg := &config.Config{
			GeocoderBaseURL:   *geocoderURL,
			GeocoderTimeout:   5 * time.Second,
			GeocoderUserAgent: "crm-trigger-replay/1.0",
		}
		geocoder = nominatim.NewCachedGeocoder(nominatim.NewClient(cfg, metrics, logger), 1000, metrics)
	}

	reg := dispatcher.NewRegistry()
	if err := trigger.Register(reg, trigger.Deps{
		Contacts:                     store,
		Invoices:                     store,
		Products:                     store,
		Fields:                       store,
		Activities:                   store,
		Geolocations:                 store,
		Translator:                   catalog,
		Geocoder:                     geocoder,
		KitDescriptionOnProposalLine: *kit,
		Clock:                        clk,
		Logger:                       logger,
		Metrics:                      metrics,
	}); err != nil {
		return err
	}
	disp := dispatcher.New(reg, true, logger, metrics)

	in, err := os.Open(*eventsPath)
	if err != nil {
		return fmt.Errorf("open events: %w", err)
	}
	defer in.Close()

	records, err := replay(ctx, in, disp)
	if err != nil {
		return err
	}
	log.Printf("replayed %d events", len(records))

	if err := writeRecords(*outPath, records); err != nil {
		return fmt.Errorf("writing outcomes: %w", err)
	}
	printStats(records)
	return nil
}

// replay dispatches each non-empty line. Undecodable lines abort the run with
// their line number.
func replay(ctx context.Context, r io.Reader, disp *dispatcher.Dispatcher) ([]domain.OutcomeRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []domain.OutcomeRecord
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		evt, err := domain.DecodeEvent(scanner.Bytes())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, domain.NewOutcomeRecord(evt, disp.Dispatch(ctx, evt)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return records, nil
}

func writeRecords(path string, records []domain.OutcomeRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printStats(records []domain.OutcomeRecord) {
	type counts struct{ triggered, failed, skipped int }
	byEvent := map[string]*counts{}
	for _, r := range records {
		c, ok := byEvent[r.EventName]
		if !ok {
			c = &counts{}
			byEvent[r.EventName] = c
		}
		switch {
		case r.Result < 0:
			c.failed++
		case r.Triggered > 0:
			c.triggered++
		default:
			c.skipped++
		}
	}

	names := make([]string, 0, len(byEvent))
	for name := range byEvent {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := byEvent[name]
		log.Printf("%-32s triggered=%d failed=%d skipped=%d", name, c.triggered, c.failed, c.skipped)
	}
}
