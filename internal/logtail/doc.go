// Package logtail reads the tail of the flowgate log file for display in the
// status surface.
//
// # Reading Log Files
//
// Read uses a ring buffer of size maxLines so only the last lines are kept in
// memory, regardless of file size:
//
//  1. Allocate ring buffer of size maxLines
//  2. For each line in file, store it at the current index and advance
//     (wrapping at maxLines)
//  3. Return the buffer starting from the oldest retained line
//
// Read returns nil, nil for non-existent files: the logger may not have
// written anything yet.
//
// # Structured Entries
//
// The logger writes one JSON object per line. Parse splits a line into the
// timestamp, level, logger name and message, and renders every other key as
// key=value in sorted order. Lines that are not JSON (a panic trace, for
// example) come back as message-only entries so nothing is hidden.
package logtail
