// Package service is the facade the transports (REST, WebSocket, MCP) call.
//
// It exposes:
//   - The level database: listing levels and reading one level's cells
//   - Action replay: building a map from a LURD move string
//   - Scenes: spawning a level as tile entities, moving entities to other
//     cells and ticking position reconciliation
//
// Usage:
//
//	db, _ := database.Load("levels")
//	rec, _ := motion.NewReconciler(64, motion.DefaultSmoothing)
//	svc := service.NewLevelService(db, session.NewManager(), rec)
//
//	info, err := svc.CreateScene(ctx, 0)
//	frames := svc.TickScenes(ctx)
package service
