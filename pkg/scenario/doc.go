// Package scenario loads banker scenarios from disk.
//
// A scenario is an initial resource state plus an ordered list of requests
// to evaluate against it. Two encodings are supported.
//
// The text encoding:
//
//	# processes resources
//	5 3
//	# allocation, one row per process
//	0 1 0
//	2 0 0
//	...
//	# maximum, one row per process
//	7 5 3
//	...
//	# available
//	3 3 2
//	# requests
//	1: 1 0 2
//	4: 3 3 0
//
// Blank lines and anything after '#' are ignored. Entries may be separated
// by spaces, tabs or commas.
//
// The YAML encoding carries the same fields:
//
//	allocation: [[0, 1, 0], [2, 0, 0]]
//	maximum:    [[7, 5, 3], [3, 2, 2]]
//	available:  [3, 3, 2]
//	requests:
//	  - process: 1
//	    request: [1, 0, 2]
//
// Load picks the decoder from the file extension (.yaml and .yml select YAML).
package scenario
