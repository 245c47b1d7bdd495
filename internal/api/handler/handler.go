package handler

import (
	"linkup/backend/internal/auth"
	"linkup/backend/internal/chathub"
	"linkup/backend/internal/storage"

	"go.uber.org/zap"
)

// Handler carries the dependencies shared by the HTTP endpoints.
type Handler struct {
	Gateway *chathub.Gateway
	Store   storage.Storage
	Auth    *auth.Service
	Log     *zap.Logger
}

func NewHandler(gateway *chathub.Gateway, store storage.Storage, authSvc *auth.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Gateway: gateway, Store: store, Auth: authSvc, Log: log}
}
