package subscription

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/models"
	"github.com/magabrotheeeer/gym-membership/internal/rabbitmq"
)

const (
	routingCreated     = rabbitmq.RoutingPassCreated
	routingCharged     = rabbitmq.RoutingPassCharged
	routingDeactivated = rabbitmq.RoutingPassDeactivated
)

// publish отправляет событие. Ошибка публикации только логируется: состояние абонемента
// уже зафиксировано и от доставки уведомления не зависит.
func (e *Engine) publish(ctx context.Context, log *slog.Logger, routingKey string, event *models.PassEvent) {
	if err := e.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Warn("failed to publish pass event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}
