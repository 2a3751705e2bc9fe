package chat

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"group-chat-service/internal/models"
	"group-chat-service/internal/observability"
	"group-chat-service/internal/session"
)

// Result is what a successful invocation hands back to the transport: the
// value for the caller's completion and the fan-out to apply.
type Result struct {
	Value   any
	Effects []Effect
}

type invokeFunc func(ctx context.Context, s *Service, sess *session.Session, args []string) (Result, error)

type method struct {
	argc int
	call invokeFunc
}

var methods = map[string]method{
	"SetDisplayName": {argc: 1, call: func(_ context.Context, s *Service, sess *session.Session, args []string) (Result, error) {
		return Result{Value: s.SetDisplayName(sess, args[0])}, nil
	}},
	"ListGroups": {argc: 0, call: func(ctx context.Context, s *Service, _ *session.Session, _ []string) (Result, error) {
		groups, err := s.ListGroups(ctx)
		return Result{Value: groups}, err
	}},
	"CreateGroup": {argc: 1, call: func(ctx context.Context, s *Service, sess *session.Session, args []string) (Result, error) {
		effects, err := s.CreateGroup(ctx, sess, args[0])
		return Result{Effects: effects}, err
	}},
	"GetGroupInfo": {argc: 1, call: func(ctx context.Context, s *Service, _ *session.Session, args []string) (Result, error) {
		info, err := s.GetGroupInfo(ctx, args[0])
		return Result{Value: info}, err
	}},
	"GetAllMessages": {argc: 1, call: func(ctx context.Context, s *Service, sess *session.Session, args []string) (Result, error) {
		msgs, err := s.GetAllMessages(ctx, sess, args[0])
		return Result{Value: msgs}, err
	}},
	"JoinGroup": {argc: 1, call: func(ctx context.Context, s *Service, sess *session.Session, args []string) (Result, error) {
		effects, err := s.JoinGroup(ctx, sess, args[0])
		return Result{Effects: effects}, err
	}},
	"LeaveGroup": {argc: 1, call: func(ctx context.Context, s *Service, sess *session.Session, args []string) (Result, error) {
		effects, err := s.LeaveGroup(ctx, sess, args[0])
		return Result{Effects: effects}, err
	}},
	"SendMessage": {argc: 2, call: func(ctx context.Context, s *Service, sess *session.Session, args []string) (Result, error) {
		effects, err := s.SendMessage(ctx, sess, args[0], args[1])
		return Result{Effects: effects}, err
	}},
}

// aliases maps the method names used by the browser client to their canonical names.
var aliases = map[string]string{
	"SetUserName":         "SetDisplayName",
	"GetAvaliableGroups":  "ListGroups",
	"GetAvailableGroups":  "ListGroups",
	"GetGroupInfos":       "GetGroupInfo",
	"GetAllGroupMessages": "GetAllMessages",
	"SendGroupMessage":    "SendMessage",
}

// Canonical resolves an alias to the canonical method name.
func Canonical(name string) string {
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// Invoke dispatches the method called name with positional string args.
func (s *Service) Invoke(ctx context.Context, sess *session.Session, name string, args []string) (Result, error) {
	canonical := Canonical(name)
	m, ok := methods[canonical]
	if !ok {
		observability.ObserveInvocation("unknown", string(models.KindInvalidRequest), 0)
		return Result{}, models.InvalidRequest(fmt.Sprintf("unknown method %q", name))
	}

	ctx, span := otel.Tracer("group-chat-service/chat").Start(ctx, "chat."+canonical, trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.conn_id", sess.ConnID()),
		attribute.Int("chat.args", len(args)),
	)

	start := time.Now()
	res, err := s.invoke(ctx, sess, canonical, m, args)
	outcome := "ok"
	if err != nil {
		outcome = string(models.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.emitAudit(ctx, sess, "ERROR", models.ClientMessage(err))
	}
	observability.ObserveInvocation(canonical, outcome, time.Since(start))
	return res, err
}

func (s *Service) invoke(ctx context.Context, sess *session.Session, name string, m method, args []string) (Result, error) {
	if len(args) != m.argc {
		return Result{}, models.InvalidRequest(fmt.Sprintf("method %s expects %d arguments, got %d", name, m.argc, len(args)))
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return m.call(ctx, s, sess, args)
}
