//go:build !spscdebug

package spsc

const debugChecks = false
