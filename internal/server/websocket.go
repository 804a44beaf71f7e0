package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mhpenta/datasetgen"
)

const wsWriteTimeout = 10 * time.Second

// handleWebSocket streams a status snapshot on connect and after every
// session state change. Client messages are ignored.
func (s *HTTPServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	id := uuid.New().String()
	updates := s.broker.Subscribe(id)
	defer s.broker.Unsubscribe(id)

	s.logger.Debug("websocket connected", zap.String("subscriber", id))

	ctx := conn.CloseRead(r.Context())

	if err := writeStatus(ctx, conn, s.session.Status()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("websocket disconnected", zap.String("subscriber", id))
			return
		case st, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "subscription closed")
				return
			}
			if err := writeStatus(ctx, conn, st); err != nil {
				s.logger.Debug("websocket write failed", zap.String("subscriber", id), zap.Error(err))
				return
			}
		}
	}
}

func writeStatus(ctx context.Context, conn *websocket.Conn, st datasetgen.Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}
