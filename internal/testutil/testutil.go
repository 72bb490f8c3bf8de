// Package testutil provides shared test utilities and fixtures.
//
// The main fixture is CaptureBuilder, which assembles LVX capture files byte
// by byte so decoder, aggregator and driver tests can describe exactly the
// frames and packages they need.
package testutil

import "testing"

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
