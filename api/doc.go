// Package api provides the HTTP REST API over the level service.
//
// Endpoints:
//
// Levels:
//   - GET /api/levels - List every loaded level
//   - GET /api/levels/first - The first level of the database
//   - GET /api/levels/{index} - One level with its rows and cell visuals
//
// Replay:
//   - POST /api/replay - Build a map from a LURD move string
//
// Scenes:
//   - POST /api/scenes - Spawn a level as tile entities
//   - GET /api/scenes - List live scenes
//   - GET /api/scenes/{id} - Current frame of a scene
//   - DELETE /api/scenes/{id} - Drop a scene
//   - POST /api/scenes/{id}/entities/{entity}/position - Move an entity to a grid cell
//
// Other:
//   - GET /ws?scene={id} - WebSocket stream of scene frames
//   - GET /health - Health check
//
// Errors are returned as {"error": "..."} with 400 for malformed input or
// invalid actions, 404 for unknown levels, scenes or entities, and 503 once
// no scene ID is left.
package api
