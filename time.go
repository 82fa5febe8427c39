package auth

import "time"

// IsWithinThresholdPeriod reports whether t falls inside the trailing
// window described by pattern, e.g. "24h" for the login cool-down.
func IsWithinThresholdPeriod(t time.Time, pattern string) (bool, error) {
	window, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	cutoff := time.Now().Add(-window)

	return t.After(cutoff), nil
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod.
func IsOutsideThresholdPeriod(t time.Time, pattern string) (bool, error) {
	within, err := IsWithinThresholdPeriod(t, pattern)
	if err != nil {
		return false, err
	}

	return !within, nil
}
