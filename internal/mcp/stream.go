package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sobiamehak/humanoid-robotic-book/internal/orchestrator"
)

// NewStreamHandler creates the /chat/stream endpoint: the streamed answer
// as Server-Sent Events. Each event's data field is one StreamEvent JSON
// object; the stream ends after the done event.
//
//	GET /chat/stream?query=explain+bipedal+locomotion&session_id=web-1
func NewStreamHandler(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if query == "" {
			http.Error(w, "query parameter is required", http.StatusBadRequest)
			return
		}
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			sessionID = defaultSessionID
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		orch.AskStream(r.Context(), sessionID, query, func(event orchestrator.StreamEvent) {
			data, err := json.Marshal(event)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		})
	}
}
