//go:build !unix

package deps

func needsElevation() bool { return false }
