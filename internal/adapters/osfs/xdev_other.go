//go:build !unix

package osfs

func isCrossDevice(error) bool { return false }
