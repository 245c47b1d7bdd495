package chathub_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"linkup/backend/internal/models"
	"linkup/backend/internal/presence"

	"github.com/stretchr/testify/mock"
)

var (
	errAuth = errors.New("token rejected")
	errBlob = errors.New("blob store unavailable")
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) UsersByTopic(topic string) ([]models.User, error) {
	args := m.Called(topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) GetThreadByID(id uint) (*models.Thread, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *MockStorage) GetOrCreateThread(user1ID, user2ID string) (*models.Thread, error) {
	args := m.Called(user1ID, user2ID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *MockStorage) ThreadsForUser(userID string) ([]models.Thread, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Thread), args.Error(1)
}

func (m *MockStorage) SaveMessage(thread *models.Thread, msg *models.ChatMessage) error {
	args := m.Called(thread, msg)
	if args.Error(0) == nil && msg.ID == 0 {
		// The database would fill the primary key.
		msg.ID = 1
	}
	return args.Error(0)
}

func (m *MockStorage) LastMessage(threadID uint) (*models.ChatMessage, error) {
	args := m.Called(threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

func (m *MockStorage) MarkMessageRead(messageID uint) error {
	args := m.Called(messageID)
	return args.Error(0)
}

func (m *MockStorage) UnreadMessages(threadID uint, excludeSenderID string) ([]models.ChatMessage, error) {
	args := m.Called(threadID, excludeSenderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStorage) MarkThreadRead(threadID uint) error {
	args := m.Called(threadID)
	return args.Error(0)
}

func (m *MockStorage) MessagesForThread(threadID uint, limit, offset int) ([]models.ChatMessage, error) {
	args := m.Called(threadID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStorage) SaveNotification(n *models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func (m *MockStorage) PublishEvent(event models.RouteEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// mockClient is a test double for the Client interface with a
// buffered send channel that tests can drain.
type mockClient struct {
	userID   string
	threadID uint
	send     chan []byte

	closeOnce sync.Once
}

func newMockClient(userID string, threadID uint) *mockClient {
	return &mockClient{
		userID:   userID,
		threadID: threadID,
		send:     make(chan []byte, 16),
	}
}

func (c *mockClient) GetUserID() string             { return c.userID }
func (c *mockClient) GetThreadID() uint             { return c.threadID }
func (c *mockClient) GetSendChannel() chan<- []byte { return c.send }
func (c *mockClient) Run()                          {}
func (c *mockClient) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// nextFrame pops the oldest queued frame or fails the test.
func (c *mockClient) nextFrame(t *testing.T) []byte {
	t.Helper()
	select {
	case payload := <-c.send:
		return payload
	default:
		t.Fatal("expected a queued frame")
		return nil
	}
}

func (c *mockClient) frameCount() int { return len(c.send) }

// fakeTracker is an in-memory presence.Tracker.
type fakeTracker struct {
	mu       sync.Mutex
	statuses map[string]presence.Status
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{statuses: make(map[string]presence.Status)}
}

func (f *fakeTracker) SetOnline(_ context.Context, userID string, threadID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[userID] = presence.Status{Online: true, ThreadID: threadID}
	return nil
}

func (f *fakeTracker) SetOffline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[userID] = presence.Status{Online: false}
	return nil
}

func (f *fakeTracker) Get(_ context.Context, userID string) (presence.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[userID], nil
}

func (f *fakeTracker) set(userID string, status presence.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[userID] = status
}

// fakeResolver resolves tokens from a fixed map.
type fakeResolver struct {
	users map[string]*models.User
}

func (f *fakeResolver) ResolveToken(token string) (*models.User, error) {
	if user, ok := f.users[token]; ok {
		return user, nil
	}
	return nil, errAuth
}

// fakeBlobStore returns a deterministic URL for any well-formed
// data URI.
type fakeBlobStore struct {
	stored []string
	fail   bool
}

func (f *fakeBlobStore) StoreDataURI(dataURI string) (string, error) {
	if f.fail {
		return "", errBlob
	}
	f.stored = append(f.stored, dataURI)
	return "/media/message_images/stored.png", nil
}

// MockNotifier records offline-message notifications.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(user *models.User, title, content string, contentID *uint) (*models.Notification, error) {
	args := m.Called(user, title, content, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}
