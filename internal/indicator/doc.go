// Package indicator manages the single shared status indicator.
//
// The host supplies the actual visual object through Host and Item. The
// Manager guarantees that Host.CreateItem is called at most once between
// teardowns: the item is created lazily on the first non-zero count, hidden
// (not destroyed) when the count returns to zero, and reused for every later
// transition.
//
// Recomputes may be batched with a Coalescer: any number of Request calls
// made before the scheduler drains collapse into one recompute.
//
//	q := indicator.NewQueue()
//	c := indicator.NewCoalescer(q, func() { _ = m.Sync(reg.Size()) })
//	c.Request()
//	c.Request()
//	q.Drain() // one Sync
package indicator
