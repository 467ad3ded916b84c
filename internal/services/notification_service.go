package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/nginxguard/internal/version"
)

// Test hook to allow overriding the shoutrrr sender
var sendFunc = shoutrrr.Send

// NotificationService fans a message out to shoutrrr URLs.
type NotificationService struct {
	urls []string
	log  *logrus.Entry
}

func NewNotificationService(urls []string, log *logrus.Entry) *NotificationService {
	return &NotificationService{urls: urls, log: log}
}

// Enabled reports whether any destination is configured.
func (s *NotificationService) Enabled() bool {
	return len(s.urls) > 0
}

// Send delivers title and message to every URL. Delivery is best effort: failures
// are logged and counted, never returned to the caller's control flow.
func (s *NotificationService) Send(title, message string) (failed int) {
	msg := fmt.Sprintf("[%s] %s: %s", version.Name, title, message)
	for i, url := range s.urls {
		if err := sendFunc(url, msg); err != nil {
			failed++
			// the URL may carry credentials, so only its position is logged
			s.log.WithError(err).WithField("destination", i).Warn("notification failed")
		}
	}
	return failed
}
