package server

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"dindin/internal/game"
	"dindin/internal/metrics"
	"dindin/internal/store"
)

type wsClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// gameWebSocketHandler upgrades a connection, authenticates it from the token
// query parameter and pumps incoming client messages. All round events arrive
// through the hub; this loop only handles what the client sends.
func (s *FiberServer) gameWebSocketHandler(conn *websocket.Conn) {
	token := conn.Query("token")
	claims, err := s.tokens.Validate(token)
	if err != nil {
		conn.WriteJSON(game.WSMessage{Type: "error", Data: "Não autenticado"})
		conn.Close()
		return
	}
	uid := claims.UserID

	client := s.hub.RegisterClient(conn, uid)
	metrics.ConnectedClients.Inc()
	if _, err := s.cache.PlayerConnected(context.Background()); err != nil {
		s.log.Warn("player counter incr failed", zap.Error(err))
	}

	defer func() {
		s.hub.UnregisterClient(client)
		metrics.ConnectedClients.Dec()
		if _, err := s.cache.PlayerDisconnected(context.Background()); err != nil {
			s.log.Warn("player counter decr failed", zap.Error(err))
		}
	}()

	// Fresh connections get the full game state right away.
	if snap := s.engine.Snapshot(); snap != nil {
		conn.WriteJSON(game.WSMessage{Type: game.EventGameState, Data: snap})
	}

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg wsClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "placeBet":
			s.handleWSBet(conn, uid, msg.Data)

		case "chatMessage":
			s.handleWSChat(uid, msg.Data)

		case "ping":
			conn.WriteJSON(game.WSMessage{Type: "pong"})
		}
	}
}

func (s *FiberServer) handleWSBet(conn *websocket.Conn, uid string, data json.RawMessage) {
	var req placeBetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		conn.WriteJSON(game.WSMessage{Type: "betRejected", Data: "Corpo da requisição inválido"})
		return
	}

	bet, balance, err := s.engine.PlaceBet(context.Background(), uid, req.RoundID, req.Amount, req.Type)
	if err != nil {
		conn.WriteJSON(game.WSMessage{Type: "betRejected", Data: err.Error()})
		return
	}

	conn.WriteJSON(game.WSMessage{Type: "betAccepted", Data: map[string]any{
		"bet":     bet,
		"balance": balance,
	}})
}

func (s *FiberServer) handleWSChat(uid string, data json.RawMessage) {
	var req struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return
	}

	msg, err := s.store.InsertChatMessage(context.Background(), uid, &uid, store.SenderUser, req.Body, nil, false)
	if err != nil {
		s.log.Error("ws chat persist failed", zap.String("user", uid), zap.Error(err))
		return
	}

	// Push through the hub so every connection of the thread owner sees the
	// message, not just the one that sent it.
	s.notifyChat(uid, msg)
}
