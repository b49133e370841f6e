// Package api exposes the game service over HTTP.
//
// Sessions:
//   - POST /api/sessions {"question_set_id":"001"} - start a game
//   - GET /api/sessions - list sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - session with state and board
//   - DELETE /api/sessions/{id}
//
// Play:
//   - GET /api/sessions/{id}/state
//   - GET /api/sessions/{id}/squares/{square} - question for a square
//   - POST /api/sessions/{id}/attempt {"square":5,"answer":"..."}
//   - POST /api/sessions/{id}/obstacle {"guess":"..."}
//   - POST /api/sessions/{id}/final-guess {"guess":"..."}
//   - POST /api/sessions/{id}/reset
//   - GET /api/sessions/{id}/history?page=&limit=&order=
//   - GET /api/sessions/{id}/tiles/{row}/{col} - PNG of a revealed square
//
// Question sets and results:
//   - GET /api/question-sets, POST /api/question-sets, GET /api/question-sets/{id}
//   - GET /api/results?limit=
//
// GET /health reports liveness and /ws?session={id} upgrades to the live feed.
//
// Errors come back as {"error": "..."}: 404 for unknown sessions and sets,
// 400 for malformed input, 409 for actions the rules reject and 403 for
// tiles that are still hidden.
package api
