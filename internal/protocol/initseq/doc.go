// Package initseq builds and reads the initialization sequence: the one-time
// payload of map, cities, players and rules sent before any frame.
//
// The builder is a chain of stage types. Each stage method consumes its
// receiver and returns the next stage, so the sections can only be written
// in order:
//
//	b := initseq.NewBuilder(ws, params, scratch)
//	wm, _ := b.WithMapLZ4(m)       // or WithMapUncompressed
//	wc, _ := wm.WithCits(cits)
//	wr, _ := wc.WithRules(players, rules)
//	seq, _ := wr.Finish()
//
// Finish is also available right after the map or city stage for consumers
// that do not need the remaining sections. Calling a method on a stage that
// was already advanced returns ErrStageConsumed.
package initseq
