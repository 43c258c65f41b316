// Package api provides the HTTP REST API for grid search sessions.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session from a board preset {board_id}
//   - POST /api/sessions/generate - Create a session on a random board {rows,cols,density,seed}
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Board Editing:
//   - GET /api/sessions/{id}/board - Walls, endpoints and a text rendering
//   - POST /api/sessions/{id}/walls/toggle - Toggle the wall at {x,y}
//   - DELETE /api/sessions/{id}/walls - Remove every wall
//   - PUT /api/sessions/{id}/start, PUT /api/sessions/{id}/end - Move an endpoint to {x,y}
//
// Searching:
//   - POST /api/sessions/{id}/search - Run {algorithm} to completion
//   - POST /api/sessions/{id}/animate - Stream {algorithm} to WebSocket clients every delay_ms (202)
//   - DELETE /api/sessions/{id}/animate - Stop the running animation
//   - POST /api/sessions/{id}/runs - Start a steppable run
//   - POST /api/sessions/{id}/runs/{run}/step - Advance a run by {count} records
//   - DELETE /api/sessions/{id}/runs/{run} - Cancel a run
//   - GET /api/sessions/{id}/compare - Run all four algorithms on the same board
//   - GET /api/sessions/{id}/history - Paginated run history (page, limit, order)
//
// Boards and algorithms:
//   - GET /api/boards, POST /api/boards - List or save board presets
//   - GET /api/boards/{name} - Get one preset
//   - GET /api/algorithms - List algorithms
//
// Other:
//   - GET /ws?session={id} - Subscribe to records and board updates
//   - GET /healthz - Health check
//   - GET /metrics - Prometheus metrics
//
// Algorithm names are case-insensitive: astar (a*), dijkstra, bfs
// (breadth-first) and dfs (depth-first). An empty name selects astar.
//
// Error Handling:
//
// Errors are returned as JSON:
//
//	{"error": "session a1b2: session not found"}
//
// Unknown sessions, runs and boards map to 404. Out of bounds cells, endpoints
// on walls, unknown algorithms and invalid boards map to 400.
package api
