package broker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ is a Broker backed by a RabbitMQ connection. It retries the
// initial connect with a fixed delay and reconnects automatically on
// mid-session loss, re-declaring queues and resuming consumers. Unacked
// messages are redelivered by the broker after a reconnect.
type RabbitMQ struct {
	url      string
	attempts int // 0 = retry forever
	delay    time.Duration

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queues map[string]struct{}
	subs   []subscription
	closed bool
}

type subscription struct {
	ctx     context.Context
	queue   string
	handler Handler
}

// NewRabbitMQ connects to RabbitMQ, retrying up to attempts times with a
// fixed delay between tries. attempts <= 0 retries indefinitely.
func NewRabbitMQ(host string, port int, user, password string, attempts int, delay time.Duration) (*RabbitMQ, error) {
	r := &RabbitMQ{
		url:      fmt.Sprintf("amqp://%s:%s@%s:%d/", user, password, host, port),
		attempts: attempts,
		delay:    delay,
		queues:   make(map[string]struct{}),
	}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

// connect dials until a channel is up, sleeping r.delay between tries.
func (r *RabbitMQ) connect() error {
	var lastErr error
	for attempt := 1; r.attempts <= 0 || attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			log.Printf("⚠️ RabbitMQ connect failed: %v, retrying in %s", lastErr, r.delay)
			time.Sleep(r.delay)
		}

		conn, err := amqp.Dial(r.url)
		if err != nil {
			lastErr = err
			continue
		}

		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			lastErr = err
			continue
		}

		// One message in flight per queue keeps consumption serialized.
		if err := ch.Qos(1, 0, false); err != nil {
			conn.Close()
			lastErr = err
			continue
		}

		r.mu.Lock()
		r.conn = conn
		r.ch = ch
		queues := make([]string, 0, len(r.queues))
		for name := range r.queues {
			queues = append(queues, name)
		}
		r.mu.Unlock()

		for _, name := range queues {
			if err := r.declare(ch, name); err != nil {
				log.Printf("⚠️ Failed to re-declare queue %s: %v", name, err)
			}
		}

		go r.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

		log.Println("✅ Connected to RabbitMQ")
		return nil
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", r.attempts, lastErr)
}

// watch reconnects after a mid-session connection loss and resumes every
// registered consumer. A graceful Close does not trigger it.
func (r *RabbitMQ) watch(closed <-chan *amqp.Error) {
	err, ok := <-closed
	if !ok || err == nil {
		return
	}

	r.mu.Lock()
	done := r.closed
	r.mu.Unlock()
	if done {
		return
	}

	log.Printf("⚠️ RabbitMQ connection lost: %v, reconnecting", err)
	for {
		cerr := r.connect()
		if cerr == nil {
			break
		}
		log.Printf("⚠️ RabbitMQ reconnect failed: %v", cerr)
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	subs := append([]subscription(nil), r.subs...)
	r.mu.Unlock()
	for _, s := range subs {
		if s.ctx.Err() != nil {
			continue
		}
		if serr := r.subscribe(s); serr != nil {
			log.Printf("⚠️ Failed to resume consumer on %s: %v", s.queue, serr)
		}
	}
}

func (r *RabbitMQ) declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // queue name
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

// DeclareQueue creates a durable queue if it doesn't exist. Declared
// queues are re-declared after every reconnect.
func (r *RabbitMQ) DeclareQueue(name string) error {
	r.mu.Lock()
	r.queues[name] = struct{}{}
	ch := r.ch
	r.mu.Unlock()

	if err := r.declare(ch, name); err != nil {
		return err
	}
	log.Printf("✅ Queue declared: %s", name)
	return nil
}

// Publish enqueues a persistent message. Delivery is at-least-once.
func (r *RabbitMQ) Publish(ctx context.Context, queue string, body []byte) error {
	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()

	err := ch.PublishWithContext(ctx,
		"",    // exchange
		queue, // routing key (queue name)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Consume registers h for the queue. The handler's Action maps to
// ack, nack-without-requeue, or nack-with-requeue.
func (r *RabbitMQ) Consume(ctx context.Context, queue string, h Handler) error {
	s := subscription{ctx: ctx, queue: queue, handler: h}

	r.mu.Lock()
	r.subs = append(r.subs, s)
	r.mu.Unlock()

	return r.subscribe(s)
}

func (r *RabbitMQ) subscribe(s subscription) error {
	r.mu.Lock()
	ch := r.ch
	r.mu.Unlock()

	deliveries, err := ch.Consume(
		s.queue, // queue name
		"",      // consumer tag
		false,   // auto-ack (false = manual ack)
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", s.queue, err)
	}

	log.Printf("👂 Listening on queue: %s", s.queue)
	go r.dispatch(s, deliveries)
	return nil
}

func (r *RabbitMQ) dispatch(s subscription, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				// Channel died; watch resumes the subscription after
				// reconnecting, and unacked messages redeliver.
				return
			}
			switch s.handler(s.ctx, Delivery{Queue: s.queue, Body: msg.Body}) {
			case Ack:
				if err := msg.Ack(false); err != nil {
					log.Printf("⚠️ Failed to ack on %s: %v", s.queue, err)
				}
			case Requeue:
				if err := msg.Nack(false, true); err != nil {
					log.Printf("⚠️ Failed to requeue on %s: %v", s.queue, err)
				}
			default:
				if err := msg.Nack(false, false); err != nil {
					log.Printf("⚠️ Failed to drop on %s: %v", s.queue, err)
				}
			}
		}
	}
}

// Close shuts the connection down and stops the reconnect loop.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	r.closed = true
	ch, conn := r.ch, r.conn
	r.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}
