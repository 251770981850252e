package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/telemetry"
)

var tracer = telemetry.GetTracer("job-application-tracker/notify")

// SubjectPrefix is followed by the user id, e.g. "tracker.notifications.<id>".
const SubjectPrefix = "tracker.notifications."

// Publisher is the slice of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes every notification on a per-user subject.
type NATS struct {
	pub    Publisher
	logger *zap.Logger
}

// Connect dials the server with reconnects enabled.
func Connect(url string, timeout time.Duration) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, apperrors.Internal("connecting to NATS", err)
	}
	return conn, nil
}

func NewNATS(pub Publisher, logger *zap.Logger) *NATS {
	return &NATS{pub: pub, logger: logger}
}

func (n *NATS) Notify(ctx context.Context, note Notification) error {
	_, span := tracer.Start(ctx, "PublishNotification")
	defer span.End()

	data, err := json.Marshal(note)
	if err != nil {
		span.RecordError(err)
		return apperrors.Internal("marshaling notification", err)
	}

	subject := SubjectPrefix + note.UserID
	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := n.pub.Publish(subject, data); err != nil {
		span.RecordError(err)
		n.logger.Error("failed to publish notification",
			zap.String("user_id", note.UserID),
			zap.Error(err))
		return apperrors.Internal("publishing to NATS", err)
	}

	n.logger.Debug("published notification", zap.String("subject", subject))
	return nil
}
