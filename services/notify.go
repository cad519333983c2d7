package services

import (
	"github.com/anoiana/soa-version1/kds"
	"github.com/sirupsen/logrus"
)

// publish hands payload to the notifier. Failures are logged and never
// returned; the business operation has already committed.
func publish(p kds.Publisher, log *logrus.Logger, channel string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(channel, payload); err != nil {
		log.WithError(err).WithField("channel", channel).Error("Failed to publish kitchen event")
	}
}
