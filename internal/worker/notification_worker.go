package worker

import (
	"github.com/spec-kit/inquiry-service/internal/service"
)

// StartNotificationWorker registers audit-trail handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
