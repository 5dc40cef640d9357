package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// handleSessionWebSocket streams a session's normalized entry feed to an
// attach client as it is emitted. Entries recorded before the client
// connected are replayed first from the session wrapper's log, then live
// entries follow as they arrive.
func (srv *Server) handleSessionWebSocket(w http.ResponseWriter, r *http.Request) {
	ls, ok := srv.lookup(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}
	defer ws.CloseNow()

	ctx := r.Context()

	for _, e := range ls.sess.Entries() {
		if err := writeWS(ctx, ws, toWireEntry(e)); err != nil {
			return
		}
	}

	sub := ls.subscribe()
	defer ls.unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-sub:
			if !ok {
				ws.Close(websocket.StatusNormalClosure, "session ended")
				return
			}
			if err := writeWS(ctx, ws, w); err != nil {
				return
			}
		}
	}
}

func writeWS(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}
