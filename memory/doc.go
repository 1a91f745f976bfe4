// Package memory provides the bounded conversation log and its on-disk store.
//
// Persistence model:
//   - The log is a JSON array of {"role","content"} objects, rewritten in full on every save.
//   - At most a configured number of turns are kept; the oldest are evicted first.
//   - Load never fails: a missing or corrupt file yields an empty log.
package memory
