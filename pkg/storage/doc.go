// Package storage persists the usernames found to be available.
//
// HitWriter is the only shared mutable resource of a run. It opens the output
// in append mode, so a second run adds to what the first one found, and it
// serializes writes so concurrent workers cannot tear a line.
//
//	w, err := storage.OpenHitWriter("hits.txt")
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	w.Append("free.name")
package storage
