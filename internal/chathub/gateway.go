package chathub

import (
	"context"
	"encoding/json"
	"errors"

	"linkup/backend/internal/blob"
	"linkup/backend/internal/models"
	"linkup/backend/internal/presence"
	"linkup/backend/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnauthenticated rejects a connection with a missing,
	// malformed, or unknown token.
	ErrUnauthenticated = errors.New("user is not authorized")
	// ErrForbidden rejects a connection to a thread that does not
	// exist or does not include the authenticated user.
	ErrForbidden = errors.New("invalid thread_id")
)

// TokenResolver is the external identity lookup: opaque token in,
// user identity out.
type TokenResolver interface {
	ResolveToken(token string) (*models.User, error)
}

// Notifier is the slice of the notification bridge the gateway uses
// when a message cannot be delivered live.
type Notifier interface {
	Notify(user *models.User, title, content string, contentID *uint) (*models.Notification, error)
}

// Gateway drives each session through its lifecycle: CONNECTING →
// AUTHENTICATED → MEMBER_VALIDATED → ACTIVE → CLOSED. It owns no
// session state itself; everything it touches is partitioned by user
// or thread id.
type Gateway struct {
	store    storage.Storage
	presence presence.Tracker
	hub      *Hub
	auth     TokenResolver
	blobs    blob.Store
	notifier Notifier
	log      *zap.Logger

	// instanceID stamps published route events so the pub/sub bridge
	// can skip events this process already delivered locally.
	instanceID string
}

// NewGateway wires the gateway. The notifier may be nil, which
// disables offline-message notifications.
func NewGateway(store storage.Storage, tracker presence.Tracker, hub *Hub, auth TokenResolver, blobs blob.Store, notifier Notifier, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		store:      store,
		presence:   tracker,
		hub:        hub,
		auth:       auth,
		blobs:      blobs,
		notifier:   notifier,
		log:        log,
		instanceID: uuid.New().String(),
	}
}

// InstanceID identifies this process on the pub/sub bridge.
func (g *Gateway) InstanceID() string { return g.instanceID }

// Authenticate performs CONNECTING → AUTHENTICATED.
func (g *Gateway) Authenticate(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	user, err := g.auth.ResolveToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// ValidateMembership performs AUTHENTICATED → MEMBER_VALIDATED. A
// missing thread and a non-member are rejected identically.
func (g *Gateway) ValidateMembership(user *models.User, threadID uint) (*models.Thread, error) {
	thread, err := g.store.GetThreadByID(threadID)
	if err != nil {
		if errors.Is(err, storage.ErrThreadNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !thread.HasParticipant(user.ID) {
		return nil, ErrForbidden
	}
	return thread, nil
}

// Register performs MEMBER_VALIDATED → ACTIVE: it joins the routing
// group, flips presence, pushes the unread backlog straight down the
// new session before any live frame can reach it, and applies the
// bulk-read policy.
func (g *Gateway) Register(ctx context.Context, client Client, user *models.User, thread *models.Thread) {
	// The bulk-read policy below wants the reader's pre-connect
	// presence, so read it before the flip.
	priorSelf, err := g.presence.Get(ctx, user.ID)
	if err != nil {
		g.log.Warn("failed to read presence", zap.String("user_id", user.ID), zap.Error(err))
	}
	counterpartID := thread.Counterpart(user.ID)
	counterpart, err := g.presence.Get(ctx, counterpartID)
	if err != nil {
		g.log.Warn("failed to read presence", zap.String("user_id", counterpartID), zap.Error(err))
	}

	g.hub.Join(client)
	if err := g.presence.SetOnline(ctx, user.ID, thread.ID); err != nil {
		g.log.Warn("failed to update presence", zap.String("user_id", user.ID), zap.Error(err))
	}

	unread, err := g.store.UnreadMessages(thread.ID, user.ID)
	if err != nil {
		g.sendError(client, "Failed to load unread messages")
	} else {
		views := make([]models.MessageView, 0, len(unread))
		for i := range unread {
			views = append(views, models.NewMessageView(&unread[i], &unread[i].Sender))
		}
		if payload, merr := json.Marshal(models.BacklogFrame{
			Type:     models.FrameTypeUnread,
			Messages: views,
		}); merr == nil {
			client.GetSendChannel() <- payload
		}
	}

	// Bulk mark-read keeps the source system's asymmetric rule: the
	// counterpart is online viewing this thread while this reader
	// was not yet online before the connect.
	if counterpart.Online && counterpart.ThreadID == thread.ID && !priorSelf.Online {
		if err := g.store.MarkThreadRead(thread.ID); err != nil {
			g.log.Warn("failed to mark thread read", zap.Uint("thread_id", thread.ID), zap.Error(err))
		}
	}
}

// HandleFrame processes one inbound frame from an ACTIVE session.
// The read pump calls it synchronously, so a session never has two
// frames in flight.
func (g *Gateway) HandleFrame(ctx context.Context, client Client, user *models.User, raw []byte) {
	var frame models.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		g.sendError(client, "Malformed message payload")
		return
	}
	if frame.Empty() {
		g.sendError(client, "Message or image data is missing")
		return
	}

	// Membership is re-checked on every frame in case the bound
	// thread changed underneath the session or the id was hijacked.
	thread, err := g.store.GetThreadByID(client.GetThreadID())
	if err != nil || !thread.HasParticipant(user.ID) {
		g.sendError(client, "Invalid thread_id")
		return
	}

	var imageURL *string
	if frame.Image != "" {
		url, err := g.blobs.StoreDataURI(frame.Image)
		if err != nil {
			g.sendError(client, "Error while saving the image: "+err.Error())
			return
		}
		imageURL = &url
	}

	msg := &models.ChatMessage{
		SenderID: user.ID,
		Body:     models.StringPtr(frame.Message),
		ImageURL: imageURL,
	}
	if err := g.store.SaveMessage(thread, msg); err != nil {
		// Persistence failed: the sender alone hears about it and
		// nothing is delivered to the recipient side.
		if errors.Is(err, models.ErrEmptyMessage) || errors.Is(err, models.ErrNotParticipant) {
			g.sendError(client, err.Error())
		} else {
			g.sendError(client, "Failed to save message")
		}
		return
	}

	recipientID := thread.Counterpart(user.ID)
	recipient, err := g.presence.Get(ctx, recipientID)
	if err != nil {
		g.log.Warn("failed to read presence", zap.String("user_id", recipientID), zap.Error(err))
		recipient = presence.Status{}
	}
	viewing := recipient.Online && recipient.ThreadID == thread.ID

	if viewing {
		// Flip before rendering so both delivered copies carry
		// is_read=true.
		if err := g.store.MarkMessageRead(msg.ID); err != nil {
			g.log.Warn("failed to mark message read", zap.Uint("message_id", msg.ID), zap.Error(err))
		} else {
			msg.IsRead = true
		}
	}

	payload, err := json.Marshal(models.MessageFrame{
		Type:        models.FrameTypeMessage,
		MessageView: models.NewMessageView(msg, user),
	})
	if err != nil {
		g.log.Error("failed to encode message frame", zap.Error(err))
		return
	}

	// Echo to the sender's own group; the recipient's group gets the
	// frame only while they are viewing this thread.
	targets := []string{user.ID}
	if viewing {
		targets = append(targets, recipientID)
	}
	for _, id := range targets {
		g.hub.Multicast(id, payload)
	}
	if err := g.store.PublishEvent(models.RouteEvent{
		Origin:  g.instanceID,
		UserIDs: targets,
		Payload: payload,
	}); err != nil {
		g.log.Warn("failed to publish route event", zap.Error(err))
	}

	if !viewing && g.notifier != nil {
		// The message stays unread for backlog delivery; raise an
		// in-app notification for the absent recipient instead.
		recipientUser, uerr := g.store.GetUserByID(recipientID)
		if uerr != nil {
			g.log.Warn("failed to load recipient", zap.String("user_id", recipientID), zap.Error(uerr))
			return
		}
		body := frame.Message
		if body == "" {
			body = "Sent you an image"
		}
		threadRef := thread.ID
		if _, nerr := g.notifier.Notify(recipientUser, "New message from "+user.Username, body, &threadRef); nerr != nil {
			g.log.Warn("failed to create message notification", zap.String("user_id", recipientID), zap.Error(nerr))
		}
	}
}

// Disconnect performs ACTIVE → CLOSED. The read pump calls it from a
// deferred cleanup, so it runs on every teardown path including
// abnormal ones.
func (g *Gateway) Disconnect(ctx context.Context, client Client, user *models.User) {
	g.hub.Leave(client)
	if err := g.presence.SetOffline(ctx, user.ID); err != nil {
		g.log.Warn("failed to clear presence", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (g *Gateway) sendError(client Client, text string) {
	payload, err := json.Marshal(models.ErrorFrame{Error: text})
	if err != nil {
		return
	}
	select {
	case client.GetSendChannel() <- payload:
	default:
	}
}
