package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// PassesExchange direct-exchange событий жизненного цикла абонемента.
const PassesExchange = "passes"

// Ключи маршрутизации событий абонемента.
const (
	RoutingPassCreated     = "pass.created"
	RoutingPassCharged     = "pass.charged"
	RoutingPassDeactivated = "pass.deactivated"
)

// QueueConfig очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues очереди, которые читает сервис уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.pass_created", RoutingKey: RoutingPassCreated},
		{QueueName: "notifications.pass_charged", RoutingKey: RoutingPassCharged},
		{QueueName: "notifications.pass_deactivated", RoutingKey: RoutingPassDeactivated},
	}
}

// SetupChannel открывает канал, объявляет exchange и durable-очереди с привязками.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = declare(ch, queues); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

func declare(ch *amqp.Channel, queues []QueueConfig) error {
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	if err := ch.ExchangeDeclare(PassesExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", PassesExchange, err)
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, PassesExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s with routing key %s: %w", q.QueueName, q.RoutingKey, err)
		}
	}
	return nil
}
