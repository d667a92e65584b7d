// Package level turns puzzle notation into grid maps.
//
// Two entry points build a *grid.Map:
//
//   - Parse reads XSB-style text holding any number of levels separated by
//     blank lines and yields one result per level block. A malformed block
//     yields an error and parsing continues with the next block.
//   - Replay derives a map from a LURD move string by simulating the player
//     from the origin. The map grows to cover exactly the cells the player
//     and the pushed boxes visited.
//
// Symbols:
//
//	#  wall               -> [wall]
//	   floor (also - _)   -> [floor]
//	$  box                -> [floor box]
//	.  goal               -> [goal]
//	@  player             -> [floor player]
//	*  box on goal        -> [goal box]
//	+  player on goal     -> [goal player]
//
// A decimal count repeats the following symbol ("4#" is "####") and "|"
// starts a new row within one line. Lines starting with ";" are comments and
// "Key: value" lines are metadata; "Title" names the level.
//
// Usage:
//
//	for lvl, err := range level.Parse("microban.xsb", text) {
//		if err != nil {
//			log.Printf("skipping block: %v", err)
//			continue
//		}
//		fmt.Println(lvl.Name, lvl.Map.Dimensions())
//	}
//
//	m, err := level.ReplayString("rrUlD")
package level
