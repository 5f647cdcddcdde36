package websocket

import (
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the request and runs it as a hub client. The
// optional date query parameter (YYYY-MM-DD) scopes the session to one day.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date != "" {
			if _, err := time.Parse("2006-01-02", date); err != nil {
				http.Error(w, "invalid date", http.StatusBadRequest)
				return
			}
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "date", date)
		NewClient(hub, conn, date).Run(r.Context())
	}
}
