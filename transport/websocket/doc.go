// Package websocket pushes live game updates to browsers and the desktop client.
//
// A central Hub keeps the connected clients grouped by session ID. Each
// connection runs a read pump and a write pump; the hub goroutine owns
// registration, removal and fan-out.
//
// Clients connect with the session in the query string (/ws?session=ab12)
// and receive JSON frames:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//	{"session_id":"ab12","event":"square_correct","data":{...}}
//
// Incoming frames are ignored. Clients that cannot keep up are dropped.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//	defer hub.Stop()
package websocket
