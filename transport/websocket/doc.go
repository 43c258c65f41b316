// Package websocket streams search progress to browser clients.
//
// A central Hub keeps one set of clients per session. Each connection gets a
// read pump that only watches for disconnects and a write pump that sends one
// JSON frame per message:
//
//	{"session_id":"a1b2","event":"record","record":{"index":3,"status":"running",...}}
//
// Events are "record" for a search step, "board_update" after an edit and
// "search_finished", "search_failed" or "animation_cancelled" at the end of an
// animation.
//
// The Animator replays a search to the hub at a fixed pace. Pacing is applied
// between records with a rate limiter and never inside the search itself.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	animator := websocket.NewAnimator(ctx, searchService, hub)
//	animator.Start(sessionID, engine.AStar, 25*time.Millisecond)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//	    hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
