// Package database loads every level found in a directory of level files.
//
// A Database is built once, before any tick runs, and is read-only afterwards.
// Load either returns a complete database or an error; callers never see a
// partially loaded one.
//
// Files are read in lexicographic filename order (os.ReadDir), so "the first
// level" is the same on every platform. A directory or file that cannot be
// read fails the whole load. A level block that does not parse is logged,
// recorded in Skipped and otherwise ignored, so one bad level never hides the
// rest of its file or the other files.
//
// Usage:
//
//	db, err := database.Load("levels", database.WithExtensions(".xsb", ".txt"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	first, err := db.First()
//	if errors.Is(err, database.ErrEmptyDatabase) {
//		log.Fatal("no playable levels")
//	}
package database
