// Package engine implements the four grid search algorithms behind a single
// steppable run.
//
// A*, Dijkstra, breadth-first and depth-first search share one loop and differ
// only in their discipline: which frontier they use, how it is keyed and whether
// neighbors are relaxed by cost or simply discovered. Each Run owns a frozen
// clone of the grid and a State side table, so several runs may search the same
// board at once.
//
// Usage:
//
//	g, _ := grid.Build(30, 70, grid.NoWalls)
//	run, err := engine.NewRun(g, grid.Position{X: 10, Y: 15}, grid.Position{X: 10, Y: 35}, engine.AStar)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for {
//		rec, ok := run.Next()
//		if !ok {
//			break
//		}
//		render(rec)
//	}
//	fmt.Println(run.Result().PathLength)
//
// Records are copies. A renderer may hold them across steps, pace them or hand
// them to another goroutine without touching the run.
//
// Runs that empty their frontier end in StatusExhausted. That is a normal
// outcome, not an error.
package engine
