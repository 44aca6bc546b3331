package main

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWatch upgrades the connection and re-analyzes each incoming draft
// query, pushing a fresh diagnostic back to the client — an editor's
// "analyze on every keystroke" loop without a process restart per draft.
func (h *devHandler) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("watch upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		var req analyzeRequest
		if err := conn.ReadJSON(&req); err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				zap.L().Info("watch closed", zap.Int("code", ce.Code))
			} else {
				zap.L().Warn("watch read error", zap.Error(err))
			}
			return
		}

		resp := h.analyze(req)
		if err := conn.WriteJSON(resp); err != nil {
			zap.L().Warn("watch write error", zap.Error(err))
			return
		}
	}
}
