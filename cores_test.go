package humantrack

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCores(t *testing.T) {

	tests := []struct {
		in   string
		want []int
		err  bool
	}{
		{"4,5,6,7", []int{4, 5, 6, 7}, false},
		{"4-7", []int{4, 5, 6, 7}, false},
		{" 0, 2-3 ", []int{0, 2, 3}, false},
		{"", nil, true},
		{"a", nil, true},
		{"3-1", nil, true},
		{"-1", nil, true},
	}

	for _, tc := range tests {
		got, err := ParseCores(tc.in)

		if tc.err {
			if !errors.Is(err, ErrCPUAffinity) {
				t.Errorf("ParseCores(%q) error = %v, want ErrCPUAffinity", tc.in, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("ParseCores(%q) unexpected error: %v", tc.in, err)
			continue
		}

		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseCores(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCPUAffinityRoundTrip(t *testing.T) {

	cores, err := GetCPUAffinity()

	if err != nil {
		t.Skipf("cpu affinity unavailable: %v", err)
	}

	if len(cores) == 0 {
		t.Fatal("expected at least one allowed core")
	}

	if err := SetCPUAffinity(cores); err != nil {
		t.Fatalf("SetCPUAffinity(%v) failed: %v", cores, err)
	}
}
