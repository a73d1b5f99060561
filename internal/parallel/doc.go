// Package parallel runs row-band work on a fixed set of goroutines.
//
// Large framebuffer updates (a full-screen refresh, a colour map change)
// translate every pixel of the frame. Splitting the rectangle into
// horizontal bands lets several goroutines convert disjoint rows at once.
//
// Thread safety: WorkerPool is safe for concurrent use.
package parallel
