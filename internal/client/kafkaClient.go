package client

import (
	"fmt"
	"time"

	"github.com/Shopify/sarama"

	"order-reconciliation/internal/config"
)

// NewKafkaProducer connects a synchronous producer that waits for all in-sync replicas.
func NewKafkaProducer(cfg config.Kafka) (sarama.SyncProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	saramaConf := sarama.NewConfig()
	saramaConf.ClientID = "order-reconciliation"
	saramaConf.Producer.Return.Successes = true
	saramaConf.Producer.Return.Errors = true
	saramaConf.Producer.RequiredAcks = sarama.WaitForAll
	saramaConf.Producer.Retry.Max = 3
	saramaConf.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConf)
	if err != nil {
		return nil, fmt.Errorf("kafka: create producer: %w", err)
	}
	return producer, nil
}
