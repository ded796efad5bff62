package humantrack

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCPUAffinity is returned when the CPU affinity can not be read or set
var ErrCPUAffinity = errors.New("cpu affinity")

// ParseCores parses a comma delimited list of core numbers and ranges, eg:
// "0,2" or "4-7"
func ParseCores(s string) ([]int, error) {

	var cores []int

	for _, part := range strings.Split(s, ",") {

		part = strings.TrimSpace(part)

		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")

		first, err := strconv.Atoi(strings.TrimSpace(lo))

		if err != nil || first < 0 {
			return nil, fmt.Errorf("%w: invalid core %q", ErrCPUAffinity, part)
		}

		last := first

		if isRange {
			last, err = strconv.Atoi(strings.TrimSpace(hi))

			if err != nil || last < first {
				return nil, fmt.Errorf("%w: invalid core range %q", ErrCPUAffinity, part)
			}
		}

		for c := first; c <= last; c++ {
			cores = append(cores, c)
		}
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("%w: no cores given", ErrCPUAffinity)
	}

	return cores, nil
}
