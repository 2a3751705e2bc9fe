package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"group-chat-service/internal/models"
	"group-chat-service/internal/repositories"
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) ListGroups(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var groups []string
	if val := args.Get(0); val != nil {
		groups = val.([]string)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) GroupExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, name, owner string) (models.GroupInfo, error) {
	args := m.Called(ctx, name, owner)
	var info models.GroupInfo
	if val := args.Get(0); val != nil {
		info = val.(models.GroupInfo)
	}
	return info, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroupInfo(ctx context.Context, name string) (models.GroupInfo, error) {
	args := m.Called(ctx, name)
	var info models.GroupInfo
	if val := args.Get(0); val != nil {
		info = val.(models.GroupInfo)
	}
	return info, args.Error(1)
}

func (m *GroupRepositoryMock) AdjustUserCount(ctx context.Context, name string, delta int) (models.GroupInfo, error) {
	args := m.Called(ctx, name, delta)
	var info models.GroupInfo
	if val := args.Get(0); val != nil {
		info = val.(models.GroupInfo)
	}
	return info, args.Error(1)
}

type GroupMessageRepositoryMock struct {
	mock.Mock
}

func (m *GroupMessageRepositoryMock) AppendMessage(ctx context.Context, group string, msg models.Message) error {
	args := m.Called(ctx, group, msg)
	return args.Error(0)
}

func (m *GroupMessageRepositoryMock) ListGroupMessages(ctx context.Context, group string) ([]models.Message, error) {
	args := m.Called(ctx, group)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.GroupMessageRepository = (*GroupMessageRepositoryMock)(nil)
