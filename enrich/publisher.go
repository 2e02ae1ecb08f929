package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// RunReport summarizes the pipeline run over one listing table.
type RunReport struct {
	Dataset   string        `json:"dataset"`
	Rows      int           `json:"rows"`
	Columns   int           `json:"columns"`
	Stages    []StageReport `json:"stages"`
	Timestamp int64         `json:"timestamp"`
}

// ReportPublisher publishes run reports to MQTT.
type ReportPublisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	retain  bool
	timeout time.Duration
	logger  *zap.Logger
}

// NewReportPublisher creates a publisher. If client is nil, publishing is
// disabled and Publish is a no-op.
func NewReportPublisher(client mqtt.Client, prefix string, logger *zap.Logger) *ReportPublisher {
	if env := os.Getenv("MQTT_PUBLISH_PREFIX"); env != "" {
		prefix = env
	}
	if prefix == "" {
		prefix = "flatfeat"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportPublisher{
		client:  client,
		prefix:  prefix,
		qos:     1,
		retain:  true,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Enabled reports whether a client is attached.
func (p *ReportPublisher) Enabled() bool { return p.client != nil }

// Topic returns the topic reports for dataset are published to.
func (p *ReportPublisher) Topic(dataset string) string {
	return fmt.Sprintf("%s/%s/report", p.prefix, dataset)
}

// Publish sends report to {prefix}/{dataset}/report.
func (p *ReportPublisher) Publish(report RunReport) error {
	if p.client == nil {
		return nil
	}
	if !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}
	if report.Timestamp == 0 {
		report.Timestamp = time.Now().Unix()
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}

	topic := p.Topic(report.Dataset)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publishing to %s: timed out after %s", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	p.logger.Info("published run report",
		zap.String("topic", topic),
		zap.Int("stages", len(report.Stages)))
	return nil
}

// Close disconnects the client.
func (p *ReportPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// ConnectMQTT connects to the configured broker. Environment variables
// MQTT_BROKER, MQTT_CLIENT_ID, MQTT_USERNAME and MQTT_PASSWORD take
// precedence over cfg. With no broker configured it returns a nil client.
func ConnectMQTT(cfg PublishConfig, logger *zap.Logger) (mqtt.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	broker := envOr("MQTT_BROKER", cfg.Broker)
	if broker == "" {
		logger.Debug("MQTT disabled: no broker configured")
		return nil, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(envOr("MQTT_CLIENT_ID", orDefault(cfg.ClientID, "flatfeat")))
	if username := envOr("MQTT_USERNAME", cfg.Username); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(envOr("MQTT_PASSWORD", cfg.Password))
	}
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("connecting to MQTT broker %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, err)
	}
	logger.Info("connected to MQTT broker", zap.String("broker", broker))
	return client, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
