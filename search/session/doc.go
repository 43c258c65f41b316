// Package session keeps search sessions in memory and optionally on disk.
//
// A session owns one mutable board together with its start and end cells and
// a bounded history of finished runs. Sessions use 4-character hex IDs matched
// case-insensitively, generated with crypto/rand.
//
// Persistence:
//
// FilePersistence writes one JSON file per session with the board dimensions,
// wall positions, endpoints, timestamps and run history. Active runs and search
// state are never written; a restarted server serves the same boards with no
// runs in flight.
//
// Usage:
//
//	fp, err := session.NewFilePersistence("sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(fp)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", board.Classic())
package session
