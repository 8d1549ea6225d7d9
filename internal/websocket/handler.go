package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/clubexpense/internal/model"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients. Each client first receives a
// snapshot of the document returned by current.
func HandleWebSocket(hub *Hub, current func() model.Document, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // served on the local device only
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		var snapshot func() []byte
		if current != nil {
			snapshot = func() []byte {
				data, err := json.Marshal(NewMessage(TypeSnapshot, "", "", current()))
				if err != nil {
					logger.Error("marshal snapshot", "error", err)
					return nil
				}
				return data
			}
		}
		NewClient(hub, conn).Run(r.Context(), snapshot)
	}
}
