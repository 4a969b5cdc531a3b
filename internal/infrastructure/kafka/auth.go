package kafka

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

const (
	MechanismPlain       = "PLAIN"
	MechanismScramSHA256 = "SCRAM-SHA-256"
	MechanismScramSHA512 = "SCRAM-SHA-512"
)

// ClientConfig is the connection part of the kafka-service config shared by
// both client drivers.
type ClientConfig struct {
	Brokers      []string
	ClientID     string
	Username     string
	Password     string
	Mechanism    string
	TLSEnabled   bool
	WriteTimeout time.Duration
}

func (c ClientConfig) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("at least one broker address is required")
	}
	return nil
}

func (c ClientConfig) tlsConfig() *tls.Config {
	if !c.TLSEnabled {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// saslMechanism returns nil when no credentials are configured.
func (c ClientConfig) saslMechanism() (sasl.Mechanism, error) {
	if c.Username == "" {
		return nil, nil
	}
	switch strings.ToUpper(c.Mechanism) {
	case "", MechanismPlain:
		return plain.Mechanism{Username: c.Username, Password: c.Password}, nil
	case MechanismScramSHA256:
		return scram.Mechanism(scram.SHA256, c.Username, c.Password)
	case MechanismScramSHA512:
		return scram.Mechanism(scram.SHA512, c.Username, c.Password)
	default:
		return nil, fmt.Errorf("unsupported sasl mechanism %q", c.Mechanism)
	}
}

func (c ClientConfig) dialer() (*kafka.Dialer, error) {
	mechanism, err := c.saslMechanism()
	if err != nil {
		return nil, err
	}
	return &kafka.Dialer{
		Timeout:       10 * time.Second,
		DualStack:     true,
		ClientID:      c.ClientID,
		SASLMechanism: mechanism,
		TLS:           c.tlsConfig(),
	}, nil
}

func (c ClientConfig) transport() (*kafka.Transport, error) {
	mechanism, err := c.saslMechanism()
	if err != nil {
		return nil, err
	}
	return &kafka.Transport{
		ClientID: c.ClientID,
		SASL:     mechanism,
		TLS:      c.tlsConfig(),
	}, nil
}
