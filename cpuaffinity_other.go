//go:build !linux

package humantrack

import "fmt"

// SetCPUAffinity is only supported on linux
func SetCPUAffinity(cores []int) error {
	return fmt.Errorf("%w: unsupported platform", ErrCPUAffinity)
}

// GetCPUAffinity is only supported on linux
func GetCPUAffinity() ([]int, error) {
	return nil, fmt.Errorf("%w: unsupported platform", ErrCPUAffinity)
}
