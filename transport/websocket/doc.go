// Package websocket pushes scene frames to browser or desktop clients.
//
// Clients connect to /ws?scene=<id> and receive a JSON Message every time
// the tick loop advances that scene. Incoming client messages are ignored;
// the read pump only keeps the connection alive.
//
// Message format:
//
//	{"scene_id": "ab12", "event": "frame", "frame": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	hub.ServeWS(w, r, "ab12", &current) // current frame to the new client only
//	hub.BroadcastFrame("ab12", frame)
package websocket
