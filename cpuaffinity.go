//go:build linux

package humantrack

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetCPUAffinity sets the CPU Affinity of the program to run on the given
// core numbers, eg: []int{4,5,6,7} for the fast cores of a big.LITTLE board
func SetCPUAffinity(cores []int) error {

	if len(cores) == 0 {
		return fmt.Errorf("%w: no cores given", ErrCPUAffinity)
	}

	var set unix.CPUSet

	for _, core := range cores {
		if core < 0 {
			return fmt.Errorf("%w: invalid core %d", ErrCPUAffinity, core)
		}
		set.Set(core)
	}

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("%w: %w", ErrCPUAffinity, err)
	}

	return nil
}

// GetCPUAffinity gets the core numbers the program is allowed to run on
func GetCPUAffinity() ([]int, error) {

	var set unix.CPUSet

	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCPUAffinity, err)
	}

	cores := make([]int, 0, set.Count())

	for i := 0; len(cores) < set.Count(); i++ {
		if set.IsSet(i) {
			cores = append(cores, i)
		}
	}

	return cores, nil
}
