// Package childproctest provides a contract test suite for childproc Spawners.
package childproctest

import "slices"

// AllContracts returns every contract, grouped by category in a stable order.
func AllContracts() []TestCase {
	return slices.Concat(
		coreContracts(),
		stdioContracts(),
		signalContracts(),
		systemContracts(),
		errorContracts(),
	)
}
