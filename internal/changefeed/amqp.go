package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishTimeout = 5 * time.Second
	outboxSize     = 256
)

// amqpChannel is the subset of *amqp091.Channel the bridge uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

// AMQPBridge forwards locally published changes to a fanout exchange and
// delivers changes published by other processes to the local broker.
type AMQPBridge struct {
	conn     *amqp091.Connection
	channel  amqpChannel
	exchange string
	queue    string
	broker   *Broker
	log      *zap.SugaredLogger

	outbox    chan Change
	stopWatch func()
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// DialAMQP connects to the broker at url, declares a durable fanout exchange
// and binds an exclusive, auto-deleted queue for this process.
func DialAMQP(url, exchange string, broker *Broker, log *zap.SugaredLogger) (*AMQPBridge, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := channel.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	b := newBridge(channel, exchange, q.Name, broker, log)
	b.conn = conn
	return b, nil
}

func newBridge(channel amqpChannel, exchange, queue string, broker *Broker, log *zap.SugaredLogger) *AMQPBridge {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AMQPBridge{
		channel:  channel,
		exchange: exchange,
		queue:    queue,
		broker:   broker,
		log:      log,
		outbox:   make(chan Change, outboxSize),
	}
}

// Start begins consuming remote changes and forwarding local ones until ctx
// is cancelled or Close is called.
func (b *AMQPBridge) Start(ctx context.Context) error {
	deliveries, err := b.channel.Consume(
		b.queue, // queue
		"",      // consumer
		false,   // auto-ack
		true,    // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	ctx, b.cancel = context.WithCancel(ctx)
	b.stopWatch = b.broker.Observe(b.enqueue)

	b.wg.Add(2)
	go b.consume(ctx, deliveries)
	go b.publish(ctx)

	b.log.Infow("Change feed bridge started", "exchange", b.exchange, "queue", b.queue, "origin", b.broker.Origin())
	return nil
}

func (b *AMQPBridge) enqueue(ch Change) {
	select {
	case b.outbox <- ch:
	default:
		b.log.Warnw("Change feed outbox full, dropping change",
			"collection", ch.Collection, "document_id", ch.DocumentID)
	}
}

func (b *AMQPBridge) publish(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-b.outbox:
			body, err := json.Marshal(ch)
			if err != nil {
				b.log.Errorw("Failed to marshal change", "error", err)
				continue
			}
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			err = b.channel.PublishWithContext(pctx,
				b.exchange, // exchange
				"",         // routing key
				false,      // mandatory
				false,      // immediate
				amqp091.Publishing{
					ContentType: "application/json",
					Timestamp:   ch.At,
					AppId:       ch.Origin,
					Body:        body,
				},
			)
			cancel()
			if err != nil {
				b.log.Errorw("Failed to publish change", "error", err,
					"collection", ch.Collection, "document_id", ch.DocumentID)
			}
		}
	}
}

func (b *AMQPBridge) consume(ctx context.Context, deliveries <-chan amqp091.Delivery) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				b.log.Warnw("Change feed delivery channel closed", "queue", b.queue)
				return
			}
			var ch Change
			if err := json.Unmarshal(d.Body, &ch); err != nil {
				b.log.Errorw("Failed to unmarshal change", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			b.broker.Deliver(ch)
			_ = d.Ack(false)
		}
	}
}

// Close stops the bridge and releases the AMQP connection.
func (b *AMQPBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if b.stopWatch != nil {
			b.stopWatch()
		}
		if b.cancel != nil {
			b.cancel()
		}
		b.wg.Wait()
		if b.channel != nil {
			err = b.channel.Close()
		}
		if b.conn != nil {
			if cerr := b.conn.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}
