package kafka

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Shopify/sarama"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// Publisher pushes matched transactions onto Kafka, one topic per filter
// name under a common prefix. Delivery is fire-and-forget with local acks.
type Publisher struct {
	producer    sarama.AsyncProducer
	topicPrefix string
	done        chan struct{}
}

// NewPublisher connects an async producer to the given brokers.
func NewPublisher(brokers []string, topicPrefix string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("starting kafka producer: %w", err)
	}

	p := &Publisher{
		producer:    producer,
		topicPrefix: topicPrefix,
		done:        make(chan struct{}),
	}

	// Async deliveries fail out of band; drain and log them so the poll
	// loop never blocks on the broker.
	go func() {
		defer close(p.done)
		for err := range producer.Errors() {
			log.Printf("[Kafka] Failed to publish to %s: %v", err.Msg.Topic, err.Err)
		}
	}()

	log.Printf("[Kafka] Producer connected to %v with topic prefix %q", brokers, topicPrefix)
	return p, nil
}

// Topic returns the topic a filter's matches are published to.
func (p *Publisher) Topic(filterName string) string {
	if p.topicPrefix == "" {
		return filterName
	}
	return p.topicPrefix + "." + filterName
}

// PublishMatch serializes the transaction and queues it on the filter's
// topic, keyed by transaction id so replays land on the same partition.
func (p *Publisher) PublishMatch(filterName string, txn *models.SubscribedTransaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshalling transaction %s: %w", txn.ID, err)
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.Topic(filterName),
		Key:   sarama.StringEncoder(txn.ID),
		Value: sarama.ByteEncoder(data),
	}
	return nil
}

// PublishBatch queues every transaction in the batch on the filter's topic.
func (p *Publisher) PublishBatch(filterName string, txns []*models.SubscribedTransaction) {
	for _, t := range txns {
		if err := p.PublishMatch(filterName, t); err != nil {
			log.Printf("[Kafka] Dropping transaction %s: %v", t.ID, err)
		}
	}
}

// Close flushes pending messages and shuts the producer down.
func (p *Publisher) Close() error {
	err := p.producer.Close()
	<-p.done
	return err
}
