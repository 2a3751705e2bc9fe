// Package chat implements the group chat protocol: it validates calls
// against the caller's session and the group registry, mutates state, and
// describes the resulting fan-out as a list of effects for the transport.
package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"group-chat-service/internal/models"
	"group-chat-service/internal/repositories"
	"group-chat-service/internal/session"
	"group-chat-service/internal/telemetry"
)

const defaultStoreTimeout = 10 * time.Second

// Option alters the default configuration of a Service.
type Option interface {
	apply(*Service)
}

type optionFunc func(s *Service)

func (f optionFunc) apply(s *Service) { f(s) }

// WithClock replaces time.Now as the source of message timestamps.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(s *Service) {
		s.now = now
	})
}

// WithStoreTimeout bounds every call made to the store on behalf of one invocation.
func WithStoreTimeout(d time.Duration) Option {
	return optionFunc(func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	})
}

// WithLeaveOnDisconnect makes Disconnect apply an explicit leave for every
// group the closing connection had joined.
func WithLeaveOnDisconnect(enabled bool) Option {
	return optionFunc(func(s *Service) {
		s.leaveOnDisconnect = enabled
	})
}

// WithAudit emits audit events for successful and failed mutations.
func WithAudit(audit *telemetry.AuditEmitter) Option {
	return optionFunc(func(s *Service) {
		s.audit = audit
	})
}

// Service is the group chat protocol handler.
type Service struct {
	groups   repositories.GroupRepository
	messages repositories.GroupMessageRepository
	logger   *zap.SugaredLogger
	audit    *telemetry.AuditEmitter

	now               func() time.Time
	storeTimeout      time.Duration
	leaveOnDisconnect bool
}

// NewService constructs a Service.
func NewService(groups repositories.GroupRepository, messages repositories.GroupMessageRepository, logger *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		groups:       groups,
		messages:     messages,
		logger:       logger,
		now:          time.Now,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt.apply(s)
	}
	return s
}

// SetDisplayName sets the caller's identity. Names are not unique.
func (s *Service) SetDisplayName(sess *session.Session, name string) string {
	return sess.SetDisplayName(name)
}

// ListGroups returns all group names in creation order.
func (s *Service) ListGroups(ctx context.Context) ([]string, error) {
	return s.groups.ListGroups(ctx)
}

// CreateGroup registers name owned by the caller, makes the caller its first
// member and announces it to everyone.
func (s *Service) CreateGroup(ctx context.Context, sess *session.Session, name string) ([]Effect, error) {
	owner, err := sess.RequireDisplayName()
	if err != nil {
		return nil, err
	}

	info, err := s.groups.CreateGroup(ctx, name, owner)
	if err != nil {
		return nil, err
	}

	// info already counts the owner
	sess.Join(name)

	s.emitAudit(ctx, sess, "INFO", "Group created")
	return []Effect{
		subscribe(name),
		broadcast(EventGroupCreated, info),
	}, nil
}

// GetGroupInfo returns the metadata of name.
func (s *Service) GetGroupInfo(ctx context.Context, name string) (models.GroupInfo, error) {
	return s.groups.GetGroupInfo(ctx, name)
}

// GetAllMessages returns the retained log of a group the caller has joined.
func (s *Service) GetAllMessages(ctx context.Context, sess *session.Session, name string) ([]models.Message, error) {
	if _, err := sess.RequireDisplayName(); err != nil {
		return nil, err
	}
	if err := s.requireGroup(ctx, name); err != nil {
		return nil, err
	}
	if err := sess.RequireMembership(name); err != nil {
		return nil, err
	}
	return s.messages.ListGroupMessages(ctx, name)
}

// JoinGroup adds the caller to name. Joining a group twice does not count
// the caller twice. No event is emitted.
func (s *Service) JoinGroup(ctx context.Context, sess *session.Session, name string) ([]Effect, error) {
	if _, err := sess.RequireDisplayName(); err != nil {
		return nil, err
	}
	if err := s.requireGroup(ctx, name); err != nil {
		return nil, err
	}

	if !sess.IsMember(name) {
		if _, err := s.groups.AdjustUserCount(ctx, name, 1); err != nil {
			return nil, err
		}
		sess.Join(name)
		s.emitAudit(ctx, sess, "INFO", "Group joined")
	}
	return []Effect{subscribe(name)}, nil
}

// LeaveGroup removes the caller from name and tells the group, the caller
// included, about the new user count.
func (s *Service) LeaveGroup(ctx context.Context, sess *session.Session, name string) ([]Effect, error) {
	if _, err := sess.RequireDisplayName(); err != nil {
		return nil, err
	}
	if err := s.requireGroup(ctx, name); err != nil {
		return nil, err
	}
	if err := sess.RequireMembership(name); err != nil {
		return nil, err
	}

	info, err := s.groups.AdjustUserCount(ctx, name, -1)
	if err != nil {
		return nil, err
	}
	sess.Leave(name)

	s.emitAudit(ctx, sess, "INFO", "Group left")
	return []Effect{
		groupSend(name, EventUserLeaved, info),
		unsubscribe(name),
	}, nil
}

// SendMessage appends text to the log of name and delivers it to its members.
func (s *Service) SendMessage(ctx context.Context, sess *session.Session, text, name string) ([]Effect, error) {
	userName, err := sess.RequireDisplayName()
	if err != nil {
		return nil, err
	}
	if err := sess.RequireMembership(name); err != nil {
		return nil, err
	}

	msg := models.NewMessage(text, userName, s.now())
	if err := s.messages.AppendMessage(ctx, name, msg); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, sess, "INFO", "Group message sent")
	return []Effect{groupSend(name, EventReceiveGroupMessage, msg)}, nil
}

// Disconnect is called once the connection of sess is gone. Unless the
// service was built WithLeaveOnDisconnect, user counts are left as they are.
func (s *Service) Disconnect(ctx context.Context, sess *session.Session) []Effect {
	if !s.leaveOnDisconnect {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var effects []Effect
	for _, group := range sess.Groups() {
		groupEffects, err := s.LeaveGroup(ctx, sess, group)
		if err != nil {
			s.logger.Warnw("Leave on disconnect failed", "conn_id", sess.ConnID(), "group", group, "error", err)
			continue
		}
		effects = append(effects, groupEffects...)
	}
	return effects
}

func (s *Service) requireGroup(ctx context.Context, name string) error {
	exists, err := s.groups.GroupExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrGroupNotFound
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, sess *session.Session, level, text string) {
	if s.audit == nil {
		return
	}
	var userName *string
	if name, ok := sess.DisplayName(); ok {
		userName = &name
	}
	s.audit.Emit(ctx, level, text, sess.ConnID(), userName)
}
