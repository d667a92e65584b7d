// Package session keeps spawned scenes alive between requests.
//
// Each session owns one scene.Scene and is addressed by a short random hex
// ID. IDs are case-insensitive. Sessions that have not been touched for a
// while can be pruned with CleanupExpiredSessions.
//
// Usage:
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", 0, scene.Spawn(lvl, reconciler))
//	same, err := manager.Get(strings.ToUpper(sess.ID))
package session
