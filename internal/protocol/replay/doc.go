// Package replay reads and writes replay files: a FileHeader, one
// initialization sequence and the frame stream, optionally LZ4 compressed.
//
// Layout:
//
//	FileHeader (32) | ISHeader (22) | IS sections | frame data
//
// The FileHeader carries three independent seahash checksums: over the
// packed headers (excluding the header checksum itself), over the IS
// sections, and over the frame data as persisted.
package replay
