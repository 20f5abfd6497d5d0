// Package mqtt publishes evaluation results to an MQTT broker so plant
// dashboards and historians can subscribe to live cycle KPIs.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/enerflow/orc/core/model"
	"github.com/enerflow/orc/infra/logger"
	"github.com/enerflow/orc/pkg/export"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker       string `koanf:"broker"`
	ClientID     string `koanf:"client_id"`
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	ResultTopic  string `koanf:"result_topic"`
	OutcomeTopic string `koanf:"outcome_topic"`
	QoS          byte   `koanf:"qos"`
	UseTLS       bool   `koanf:"use_tls"`
	ClientCert   string `koanf:"client_cert"`
	ClientKey    string `koanf:"client_key"`
	CABundle     string `koanf:"ca_bundle"`

	TLSConfig *tls.Config `koanf:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher sends results and optimization outcomes over MQTT.
type Publisher struct {
	cli          pahoClient
	resultTopic  string
	outcomeTopic string
	qos          byte
	log          logger.Logger
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{
		cli:          c,
		resultTopic:  cfg.ResultTopic,
		outcomeTopic: cfg.OutcomeTopic,
		qos:          cfg.QoS,
		log:          log,
	}, nil
}

// NewClientOptions builds Paho client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// PublishResult sends one cycle result to the result topic.
func (p *Publisher) PublishResult(res *model.CycleResult) error {
	payload, err := json.Marshal(export.FromResult(res))
	if err != nil {
		return err
	}
	return p.publish(p.resultTopic, payload)
}

type outcomeMessage struct {
	ID         string                     `json:"id"`
	Feasible   bool                       `json:"feasible"`
	Objective  float64                    `json:"objective"`
	Preheater  float64                    `json:"preheater_kw"`
	Superheat  float64                    `json:"superheater_kw"`
	Binding    map[string]model.BoundKind `json:"binding,omitempty"`
	Result     *export.Document           `json:"result,omitempty"`
	Timestamp  int64                      `json:"timestamp"`
	Evaluated  int                        `json:"evaluated"`
	Infeasible int                        `json:"infeasible"`
}

// PublishOutcome sends an optimization outcome to the outcome topic.
func (p *Publisher) PublishOutcome(out *model.OptimizationOutcome) error {
	msg := outcomeMessage{
		ID:         out.ID,
		Feasible:   out.Feasible,
		Objective:  out.Objective,
		Preheater:  out.Allocation.PreheaterKW,
		Superheat:  out.Allocation.SuperheaterKW,
		Binding:    out.Binding,
		Timestamp:  time.Now().UnixMilli(),
		Evaluated:  out.Evaluated,
		Infeasible: out.Infeasible,
	}
	if out.Result != nil {
		msg.Result = export.FromResult(out.Result)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.publish(p.outcomeTopic, payload)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	if topic == "" {
		return fmt.Errorf("no topic configured")
	}
	token := p.cli.Publish(topic, p.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	p.log.Debugf("published %d bytes to %s", len(payload), topic)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
