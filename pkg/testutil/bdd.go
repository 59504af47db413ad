// Package testutil holds small helpers shared by tests across the module.
package testutil

import "testing"

// Given, When, and Then run one stage of a lifecycle test as a named subtest,
// so a failure reports which step of the flow broke. Steps run in order and
// share the enclosing test's state.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
