// Package out receives generated code in tests.
package out
