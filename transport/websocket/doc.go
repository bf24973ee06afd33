// Package websocket pushes merge-blocks game updates to browser clients.
//
// Architecture:
//
// A central Hub tracks connected clients by session ID. Each connection gets
// a read goroutine, which only keeps the connection alive, and a write
// goroutine that drains the client's send buffer and sends pings. Player
// input never arrives over the socket; it goes through the HTTP API, which
// then calls the hub.
//
// Message Protocol:
//
// Every outgoing message is a JSON Message:
//   - state_update: the full GameState after a change
//   - game_events: the events produced by one input (highlight, spawn,
//     removal, explosion, combo, milestone, game over) with the resulting state
//   - any custom event name queued with BroadcastEvent
//
// Clients pick their session with the session query parameter:
//
//	ws://host/ws?session=abc1
//
// A client whose send buffer fills up is disconnected rather than slowing
// down the rest of the session.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastEvents(sessionID, result.Events, result.GameState)
package websocket
