package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"group-chat-service/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, zap.NewNop().Sugar(), "audit.chat", "group-chat-service", "test")
	name := "alice"

	pub.On("Publish", mock.Anything, "audit.chat", mock.MatchedBy(func(env AuditEnvelope) bool {
		return env.EventType == "audit_log" &&
			env.Service == "group-chat-service" &&
			env.RequestID == "conn-1" &&
			*env.UserName == "alice" &&
			env.Payload == AuditPayload{Level: "INFO", Text: "Group created"}
	}), map[string]string{"x-request-id": "conn-1"}).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "Group created", "conn-1", &name)
	pub.AssertExpectations(t)
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, zap.NewNop().Sugar(), "audit.chat", "svc", "test")
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(context.DeadlineExceeded).Once()

	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "ERROR", "boom", "conn-1", nil)
	})
	pub.AssertExpectations(t)
}

func TestNilEmitterIsNoop(t *testing.T) {
	var emitter *AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "x", "y", nil)
	})
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "", "svc", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
