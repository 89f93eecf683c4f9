// Package ncache holds fetched documents until a request consumes them.
//
// The cache is an ordered in-memory queue. Documents are appended at the
// tail by the replenisher and taken from the head by request handling, so
// dequeue order is always the order of arrival. The structure itself does
// not enforce an upper bound; the configured capacity is only the fill
// target that the replenisher stops producing at, which means the size can
// transiently sit above or below it while producers and consumers interleave.
//
// All operations are safe for concurrent use. There is no deduplication:
// the same work can appear twice if the random draw repeats, which is
// harmless.
package ncache
