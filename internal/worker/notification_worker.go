package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Subscribers groups the in-process consumers of domain events.
type Subscribers struct {
	Notifications *service.NotificationService
	Relay         *events.RedisRelay
}

// Start registers every configured subscriber on dispatcher.
func Start(dispatcher events.Dispatcher, subscribers Subscribers, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	if subscribers.Notifications != nil {
		subscribers.Notifications.RegisterHandlers()
		logger.Info("notification subscriber registered")
	}
	if subscribers.Relay != nil {
		subscribers.Relay.Register(dispatcher)
		logger.Info("event relay registered")
	}
}
