package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"chat-sidebar/internal/events"
	"chat-sidebar/internal/models"
	"chat-sidebar/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, ownerID int, title string, isPublic bool) (models.ChatRecord, error) {
	args := m.Called(ctx, ownerID, title, isPublic)
	var chat models.ChatRecord
	if val := args.Get(0); val != nil {
		chat = val.(models.ChatRecord)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, ownerID int, chatID string) (models.ChatRecord, error) {
	args := m.Called(ctx, ownerID, chatID)
	var chat models.ChatRecord
	if val := args.Get(0); val != nil {
		chat = val.(models.ChatRecord)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, ownerID int) ([]models.ChatRecord, error) {
	args := m.Called(ctx, ownerID)
	var list []models.ChatRecord
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatRecord)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) UpdateChat(ctx context.Context, ownerID int, chatID string, patch models.ChatPatch) (models.ChatRecord, error) {
	args := m.Called(ctx, ownerID, chatID, patch)
	var chat models.ChatRecord
	if val := args.Get(0); val != nil {
		chat = val.(models.ChatRecord)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) HideChat(ctx context.Context, ownerID int, chatID string) error {
	args := m.Called(ctx, ownerID, chatID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) TouchChat(ctx context.Context, ownerID int, chatID string, at time.Time) error {
	args := m.Called(ctx, ownerID, chatID, at)
	return args.Error(0)
}

// NotifierMock records chat events handed to an events.Notifier.
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, userID int, event models.ChatEvent) {
	m.Called(ctx, userID, event)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ events.Notifier = (*NotifierMock)(nil)
