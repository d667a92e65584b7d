// Package mcp exposes the level REST API as Model Context Protocol tools.
//
// The client is a thin proxy: every tool call becomes one REST request
// against a running server, and the JSON response is rendered as text an
// agent can read (level rows in XSB notation, entity tables for scenes).
//
// MCP Tools:
//   - list_levels: List loaded levels with sizes and box/goal counts
//   - get_level: Show one level (defaults to the first)
//   - describe_cell: Tile stack and visuals of one level cell
//   - replay_actions: Build a map from a LURD move string
//   - create_scene: Spawn a level as tile entities
//   - list_scenes: List live scenes
//   - scene_frame: Current entity positions of a scene
//   - move_entity: Move an entity to another grid cell
//   - delete_scene: Drop a scene
//   - notation: Reference for level and move notation
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp handled by the main server through HandleMessage
package mcp
