package handler

import (
	"errors"
	"net/http"
	"strconv"

	"linkup/backend/internal/models"
	"linkup/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type participantView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type threadView struct {
	ID          uint                `json:"id"`
	User1       participantView     `json:"user1_data"`
	User2       participantView     `json:"user2_data"`
	LastMessage *models.MessageView `json:"last_message"`
	Updated     string              `json:"updated"`
	CreatedAt   string              `json:"created_at"`
}

func newParticipantView(u *models.User) participantView {
	return participantView{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// ListThreads returns every thread the caller participates in, most
// recently active first.
func (h *Handler) ListThreads(c *gin.Context) {
	user := currentUser(c)

	threads, err := h.Store.ThreadsForUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load threads"})
		return
	}

	views := make([]threadView, 0, len(threads))
	for i := range threads {
		t := &threads[i]
		view := threadView{
			ID:        t.ID,
			User1:     newParticipantView(&t.User1),
			User2:     newParticipantView(&t.User2),
			Updated:   t.UpdatedAt.Format(models.EventTimeFormat),
			CreatedAt: t.CreatedAt.Format(models.EventTimeFormat),
		}
		if last, lerr := h.Store.LastMessage(t.ID); lerr == nil && last != nil {
			mv := models.NewMessageView(last, &last.Sender)
			view.LastMessage = &mv
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Threads retrieved successfully", "data": views})
}

// CreateThread creates (or returns) the thread between the caller
// and the named counterpart. The unordered pair is unique, so
// repeated creation yields the same thread.
func (h *Handler) CreateThread(c *gin.Context) {
	var req struct {
		User2 string `json:"user2" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user2 is required"})
		return
	}

	user := currentUser(c)
	if req.User2 == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrSameParticipants.Error()})
		return
	}
	if _, err := h.Store.GetUserByID(req.User2); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	thread, err := h.Store.GetOrCreateThread(user.ID, req.User2)
	if err != nil {
		h.Log.Error("failed to create thread", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create thread"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thread created successfully", "data": thread})
}

// ListMessages returns a page of a thread's history. Only the
// thread's participants may read it; a missing thread and a foreign
// thread are answered identically.
func (h *Handler) ListMessages(c *gin.Context) {
	threadID, err := strconv.ParseUint(c.Param("threadID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thread id"})
		return
	}

	user := currentUser(c)
	thread, err := h.Store.GetThreadByID(uint(threadID))
	if errors.Is(err, storage.ErrThreadNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load thread"})
		return
	}
	if !thread.HasParticipant(user.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Thread not found"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.Store.MessagesForThread(thread.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	views := make([]models.MessageView, 0, len(messages))
	for i := range messages {
		views = append(views, models.NewMessageView(&messages[i], &messages[i].Sender))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messages retrieved successfully", "data": views})
}
