// Package board manages named board presets.
//
// Presets are JSON or YAML files in a boards directory:
//
//	name: maze
//	description: Small maze
//	rows: 3
//	cols: 5
//	layout:
//	  - "S..#."
//	  - ".#..."
//	  - "...#E"
//
// Layout characters are '.' for open cells, '#' for walls and optional 'S' and
// 'E' markers. A preset without a layout gets seeded random walls at
// wall_density; start and end stay open. Two built-ins, classic and random, are
// always available.
package board
