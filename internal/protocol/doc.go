// Package protocol owns the game-state message set and its binary codec.
//
// Ownership boundary:
// - Msg variants and their shared primitives (Pos, PlayerID)
// - opcode encode/decode with greedy batching under a byte budget
// - semantic range checks applied before anything is written
//
// Subpackages own the layers stacked on top: header (fixed headers),
// frame (per-tick multiplexing of player views), initseq (the
// initialization sequence) and replay (the persisted file).
package protocol
