// Package conv narrows integers across widths and signedness with range
// checks. It is used where a value crosses into a fixed-width type: row ids
// stored as uint32 and counts decoded from persisted forests.
package conv
