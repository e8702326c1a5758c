// Package spscmon exports spsc handle statistics to Prometheus and turns the
// counterpart liveness flags into health checks.
//
// Everything here only reads atomic counters and cursors, so collectors and
// checks may run on any goroutine next to the producer and the consumer.
package spscmon
