//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/crm-trigger-service/internal/adapter/kafka"
	"github.com/couchcryptid/crm-trigger-service/internal/adapter/sqlite"
	"github.com/couchcryptid/crm-trigger-service/internal/config"
	"github.com/couchcryptid/crm-trigger-service/internal/dispatcher"
	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/i18n"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
	"github.com/couchcryptid/crm-trigger-service/internal/pipeline"
	"github.com/couchcryptid/crm-trigger-service/internal/trigger"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSourceTopic = "test-crm-events"
	testSinkTopic   = "test-crm-outcomes"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("crm-triggers-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// openSeededStore opens a store and seeds one invoice with two contacts.
func openSeededStore(ctx context.Context, t *testing.T) (*sqlite.Store, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triggers.db")
	store, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`INSERT INTO contacts (id, email, phone, address) VALUES (1, 'a@example.com', '0102', '1 rue A')`,
		`INSERT INTO contacts (id, email) VALUES (2, 'b@example.com')`,
		`INSERT INTO invoices (element, id, ref) VALUES ('facture', 11, 'FA2503-0001')`,
		`INSERT INTO element_contacts (element, element_id, contact_id, code) VALUES ('facture', 11, 1, 'BILLING')`,
		`INSERT INTO element_contacts (element, element_id, contact_id, code) VALUES ('facture', 11, 2, 'SHIPPING')`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return store, db
}

func newDispatcher(t *testing.T, store *sqlite.Store, metrics *observability.Metrics) *dispatcher.Dispatcher {
	t.Helper()
	catalog, err := i18n.LoadEmbedded("en_US")
	require.NoError(t, err)

	reg := dispatcher.NewRegistry()
	require.NoError(t, trigger.Register(reg, trigger.Deps{
		Contacts:     store,
		Invoices:     store,
		Products:     store,
		Fields:       store,
		Activities:   store,
		Geolocations: store,
		Translator:   catalog,
		Logger:       discardLogger(),
		Metrics:      metrics,
	}))
	return dispatcher.New(reg, true, discardLogger(), metrics)
}

func readOutcome(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.OutcomeRecord, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rec domain.OutcomeRecord
	require.NoError(t, json.Unmarshal(msg.Value, &rec))
	assert.Equal(t, rec.EventID, string(msg.Key))
	return rec, headers
}

// TestPipelineEndToEnd publishes host events, runs the pipeline against a real
// broker and SQLite store, and checks outcomes and side effects.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}

	store, db := openSeededStore(ctx, t)
	metrics := observability.NewMetricsForTesting()
	disp := newDispatcher(t, store, metrics)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("bill"), Value: []byte(`{"id":"evt-bill","name":"BILL_CREATE","object":{"id":11,"element":"facture"},"actor":{"id":7}}`)},
		kafkago.Message{Key: []byte("contact"), Value: []byte(`{"id":"evt-contact","name":"FACTURE_ADD_CONTACT","object":{"id":11,"element":"facture"},"actor":{"id":7},"locale":"fr_FR"}`)},
		kafkago.Message{Key: []byte("other"), Value: []byte(`{"id":"evt-other","name":"ORDER_VALIDATE","object":{"id":5}}`)},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, pipeline.NewTransformer(disp, discardLogger()), writer, discardLogger(), metrics, 50)
	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	outcomes := map[string]domain.OutcomeRecord{}
	for len(outcomes) < 3 {
		rec, headers := readOutcome(ctx, t, consumer)
		assert.Equal(t, rec.EventName, headers["event_name"])
		_, err := time.Parse(time.RFC3339, headers["dispatched_at"])
		assert.NoError(t, err, "dispatched_at should be RFC3339")
		outcomes[rec.EventID] = rec
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, 1, outcomes["evt-bill"].Result)
	assert.Equal(t, 1, outcomes["evt-contact"].Result)
	assert.Equal(t, 0, outcomes["evt-other"].Result)

	var notation int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT notation FROM invoices WHERE id = 11`).Scan(&notation))
	assert.Equal(t, 66, notation)

	var code, label string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT code, label FROM activities WHERE fk_element = 11`).Scan(&code, &label))
	assert.Equal(t, "AC_FACTURE_ADD_CONTACT", code)
	assert.Equal(t, "Contact ajouté à l'objet", label)
}
