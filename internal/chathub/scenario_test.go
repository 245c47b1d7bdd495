package chathub_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"linkup/backend/internal/chathub"
	"linkup/backend/internal/models"
	"linkup/backend/internal/notify"
	"linkup/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a stateful in-memory storage.Storage used for the
// end-to-end session scenarios below.
type memStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	threads       map[uint]*models.Thread
	messages      []*models.ChatMessage
	notifications []models.Notification
	events        []models.RouteEvent
	nextMessageID uint
}

func newMemStore(users []*models.User, threads []*models.Thread) *memStore {
	s := &memStore{
		users:   make(map[string]*models.User),
		threads: make(map[uint]*models.Thread),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	for _, th := range threads {
		s.threads[th.ID] = th
	}
	return s
}

func (s *memStore) GetUserByID(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, storage.ErrUserNotFound
}

func (s *memStore) GetUserByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *memStore) SaveUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *memStore) UsersByTopic(topic string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, user := range s.users {
		for _, t := range user.Topics {
			if t == topic {
				out = append(out, *user)
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) GetThreadByID(id uint) (*models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if thread, ok := s.threads[id]; ok {
		return thread, nil
	}
	return nil, storage.ErrThreadNotFound
}

func (s *memStore) GetOrCreateThread(user1ID, user2ID string) (*models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := &models.Thread{User1ID: user1ID, User2ID: user2ID}
	pair.NormalizePair()
	for _, thread := range s.threads {
		if thread.User1ID == pair.User1ID && thread.User2ID == pair.User2ID {
			return thread, nil
		}
	}
	pair.ID = uint(len(s.threads) + 1)
	s.threads[pair.ID] = pair
	return pair, nil
}

func (s *memStore) ThreadsForUser(userID string) ([]models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Thread
	for _, thread := range s.threads {
		if thread.HasParticipant(userID) {
			out = append(out, *thread)
		}
	}
	return out, nil
}

func (s *memStore) SaveMessage(thread *models.Thread, msg *models.ChatMessage) error {
	if err := msg.Validate(thread); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMessageID++
	msg.ID = s.nextMessageID
	msg.ThreadID = thread.ID
	msg.CreatedAt = time.Now()
	stored := *msg
	s.messages = append(s.messages, &stored)
	return nil
}

func (s *memStore) LastMessage(threadID uint) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ThreadID == threadID {
			last := *s.messages[i]
			return &last, nil
		}
	}
	return nil, nil
}

func (s *memStore) MarkMessageRead(messageID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ID == messageID {
			msg.IsRead = true
		}
	}
	return nil
}

func (s *memStore) UnreadMessages(threadID uint, excludeSenderID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range s.messages {
		if msg.ThreadID != threadID || msg.IsRead || msg.SenderID == excludeSenderID {
			continue
		}
		view := *msg
		if sender, ok := s.users[msg.SenderID]; ok {
			view.Sender = *sender
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *memStore) MarkThreadRead(threadID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ThreadID == threadID {
			msg.IsRead = true
		}
	}
	return nil
}

func (s *memStore) MessagesForThread(threadID uint, limit, offset int) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range s.messages {
		if msg.ThreadID == threadID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (s *memStore) SaveNotification(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uint(len(s.notifications) + 1)
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *memStore) PublishEvent(event models.RouteEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// TestGateway_SessionScenario walks two participants through a full
// conversation: connect, send while the other side is away, backlog
// on reconnect, and live delivery once both are viewing.
func TestGateway_SessionScenario(t *testing.T) {
	ctx := context.Background()
	alice := &models.User{ID: "alice-id", Username: "alice"}
	bob := &models.User{ID: "bob-id", Username: "bob"}
	thread := &models.Thread{ID: 1, User1ID: alice.ID, User2ID: bob.ID}

	store := newMemStore([]*models.User{alice, bob}, []*models.Thread{thread})
	tracker := newFakeTracker()
	hub := chathub.NewHub(nil)
	bridge := notify.NewBridge(store, nil, nil)
	resolver := &fakeResolver{users: map[string]*models.User{"t-alice": alice, "t-bob": bob}}
	gateway := chathub.NewGateway(store, tracker, hub, resolver, &fakeBlobStore{}, bridge, nil)

	// Alice connects alone and sees an empty backlog.
	aliceClient := newMockClient(alice.ID, thread.ID)
	gateway.Register(ctx, aliceClient, alice, thread)
	assert.Empty(t, decodeBacklog(t, aliceClient.nextFrame(t)).Messages)

	// She sends while Bob is away: echo only, record stays unread,
	// and Bob gets an in-app notification.
	gateway.HandleFrame(ctx, aliceClient, alice, []byte(`{"message":"are you around?"}`))
	echo := decodeMessage(t, aliceClient.nextFrame(t))
	assert.False(t, echo.IsRead)
	require.Len(t, store.notifications, 1)
	assert.Equal(t, bob.ID, store.notifications[0].UserID)
	assert.Equal(t, "New message from alice", store.notifications[0].Title)

	gateway.Disconnect(ctx, aliceClient, alice)
	assert.Equal(t, 0, hub.Sessions(alice.ID))

	// Bob connects later and receives the message as backlog; with
	// Alice gone there is no bulk read.
	bobClient := newMockClient(bob.ID, thread.ID)
	gateway.Register(ctx, bobClient, bob, thread)
	backlog := decodeBacklog(t, bobClient.nextFrame(t))
	require.Len(t, backlog.Messages, 1)
	assert.Equal(t, "are you around?", *backlog.Messages[0].Message)
	assert.Equal(t, alice.ID, backlog.Messages[0].Sender.ID)
	assert.False(t, backlog.Messages[0].IsRead)
	assert.False(t, store.messages[0].IsRead)

	// Alice reconnects while Bob is viewing: her backlog is empty
	// (her own messages never come back to her) and the bulk-read
	// policy flips the stored message.
	aliceClient = newMockClient(alice.ID, thread.ID)
	gateway.Register(ctx, aliceClient, alice, thread)
	assert.Empty(t, decodeBacklog(t, aliceClient.nextFrame(t)).Messages)
	assert.True(t, store.messages[0].IsRead)

	// A live message now reaches both sides already read.
	gateway.HandleFrame(ctx, aliceClient, alice, []byte(`{"message":"there you are"}`))
	echo = decodeMessage(t, aliceClient.nextFrame(t))
	delivered := decodeMessage(t, bobClient.nextFrame(t))
	assert.True(t, echo.IsRead)
	assert.Equal(t, echo, delivered)
	assert.True(t, store.messages[1].IsRead)

	// No extra notification for a live-delivered message.
	assert.Len(t, store.notifications, 1)

	// Both route events were published for sibling instances.
	require.Len(t, store.events, 2)
	assert.Equal(t, []string{alice.ID}, store.events[0].UserIDs)
	assert.Equal(t, []string{alice.ID, bob.ID}, store.events[1].UserIDs)
}
