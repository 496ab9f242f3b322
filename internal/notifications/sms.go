package notifications

import (
	"context"

	"github.com/aurumworks/jewelstore-backend/pkg/logger"
)

// LogSMSTransport writes the message to the log instead of a gateway. The
// shop has no SMS provider contract yet, so delivery is simulated.
type LogSMSTransport struct {
	logg *logger.Logger
}

// NewLogSMSTransport builds the logging transport.
func NewLogSMSTransport(logg *logger.Logger) *LogSMSTransport {
	return &LogSMSTransport{logg: logg}
}

// SendSMS logs the outbound message.
func (t *LogSMSTransport) SendSMS(ctx context.Context, toPhone, body string) error {
	if t.logg != nil {
		t.logg.Info(t.logg.WithFields(ctx, map[string]any{
			"to":   toPhone,
			"body": body,
		}), "sms dispatched (simulated)")
	}
	return nil
}
