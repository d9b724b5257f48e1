package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/GoArmGo/UserManagerApp/internal/config"
	"github.com/GoArmGo/UserManagerApp/internal/messaging/payloads"
)

// Client представляет собой клиент RabbitMQ для очереди экспорта CSV
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	cfg     *config.Config
}

// NewClient создает и инициализирует новый клиент RabbitMQ
func NewClient(cfg *config.Config) (*Client, error) {
	client := &Client{
		cfg: cfg,
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}
	client.conn = conn
	log.Println("Successfully connected to RabbitMQ!")

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %v", err)
	}
	client.channel = ch

	// Объявление очереди идемпотентно: очередь создается при отсутствии,
	// durable — задания экспорта переживают перезапуск брокера
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName, // name
		true,                           // durable
		false,                          // delete when unused
		false,                          // exclusive
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare a queue: %v", err)
	}
	client.queue = q
	log.Printf("Queue '%s' declared successfully. Messages in queue: %d", q.Name, q.Messages)

	return client, nil
}

// Close закрывает соединение и канал RabbitMQ
func (c *Client) Close() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Printf("Error closing RabbitMQ connection: %v", err)
		}
	}
}

// PublishCSVExportRequest публикует задание на экспорт CSV владельца в очередь.
// Реализует интерфейс ports.CSVExportPublisher.
func (c *Client) PublishCSVExportRequest(ctx context.Context, payload payloads.CSVExportPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	log.Printf("Message published to queue '%s': %s", c.queue.Name, string(body))
	return nil
}

// StartConsumingCSVExportRequests начинает потребление заданий экспорта из очереди.
// Реализует интерфейс ports.CSVExportConsumer.
func (c *Client) StartConsumingCSVExportRequests(ctx context.Context, handler func(context.Context, payloads.CSVExportPayload) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack (подтверждаем вручную)
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	log.Printf("Consumer registered for queue '%s'. Waiting for messages...", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					log.Println("RabbitMQ channel closed, stopping consumer.")
					return
				}

				var payload payloads.CSVExportPayload
				if err := json.Unmarshal(msg.Body, &payload); err != nil {
					log.Printf("Error unmarshalling message: %v, body: %s", err, string(msg.Body))
					// Битый формат сообщения: отклоняем без возврата в очередь,
					// иначе застрянем в бесконечном цикле ошибок
					if err := msg.Nack(false, false); err != nil {
						log.Printf("Error NACKing message after unmarshal failure: %v", err)
					}
					continue
				}

				if err := handler(ctx, payload); err != nil {
					log.Printf("Error processing export request: %v, payload: %+v", err, payload)
					// Обработка не удалась — возвращаем задание в очередь
					if err := msg.Nack(false, true); err != nil {
						log.Printf("Error NACKing message after processing failure: %v", err)
					}
				} else {
					if err := msg.Ack(false); err != nil {
						log.Printf("Error ACKing message: %v", err)
					}
					log.Printf("Export request processed and ACKed: %+v", payload)
				}
			case <-ctx.Done():
				log.Println("Context cancelled, stopping RabbitMQ consumer.")
				return
			}
		}
	}()

	return nil
}
