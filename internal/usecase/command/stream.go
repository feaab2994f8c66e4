package command

import (
	"iter"
	"time"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

// Within bounds a newest-first mod log stream to entries no older than window.
//
// Entries for which skip returns true are dropped before the age check, so they
// neither appear in the output nor end the stream. The first remaining entry with
// age > window stops consumption of the underlying stream. Stream errors are passed
// through and end the sequence.
func Within(
	stream iter.Seq2[entity.ModLogEntry, error],
	now time.Time,
	window time.Duration,
	skip func(entity.ModLogEntry) bool,
) iter.Seq2[entity.ModLogEntry, error] {
	return func(yield func(entity.ModLogEntry, error) bool) {
		for entry, err := range stream {
			if err != nil {
				yield(entity.ModLogEntry{}, err)
				return
			}
			if skip != nil && skip(entry) {
				continue
			}
			if entry.Age(now) > window {
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// Count drains a stream and returns how many items it produced.
func Count[T any](stream iter.Seq2[T, error]) (int, error) {
	n := 0
	for _, err := range stream {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
