// Package benchmark provides performance benchmarks for the journal and the
// key/value store built on it.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run only recovery benchmarks:
//
//	go test -bench=Recover -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
