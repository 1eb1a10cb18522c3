package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/telemetry"
)

func TestEmitBuildsEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.messenger", "messenger-service", "test", nil)

	var captured telemetry.AuditEnvelope
	publisher.On("Publish", mock.Anything, "audit_log.messenger", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if ok {
			captured = envelope
		}
		return ok
	})).Return(nil).Once()

	userID := int64(7)
	emitter.Emit(context.Background(), "INFO", "chat 3 created", "req-1", &userID)

	publisher.AssertExpectations(t)
	require.Equal(t, 1, captured.SchemaVersion)
	require.Equal(t, "audit_log", captured.EventType)
	require.Equal(t, "messenger-service", captured.Service)
	require.Equal(t, "test", captured.Environment)
	require.Equal(t, "req-1", captured.RequestID)
	require.NotNil(t, captured.UserID)
	require.Equal(t, int64(7), *captured.UserID)
	require.Equal(t, "INFO", captured.Payload.Level)
	require.Equal(t, "chat 3 created", captured.Payload.Text)
	require.NotEmpty(t, captured.OccurredAt)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.messenger", "messenger-service", "test", nil)

	publisher.On("Publish", mock.Anything, "audit_log.messenger", mock.Anything).
		Return(context.DeadlineExceeded).Once()

	// Must not panic or surface the error.
	emitter.Emit(context.Background(), "ERROR", "boom", "req-2", nil)
	publisher.AssertExpectations(t)
}

func TestEmitWithoutPublisherIsNoop(t *testing.T) {
	emitter := telemetry.NewAuditEmitter(nil, "audit_log.messenger", "messenger-service", "test", nil)
	emitter.Emit(context.Background(), "INFO", "ignored", "req-3", nil)
}
