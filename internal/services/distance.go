package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const milesPerKilometer = 0.621371

var distanceNumber = regexp.MustCompile(`([0-9.]+)`)

// ProcessDistance normalizes a free-form distance string to "<value> miles".
// Kilometers are converted; a bare number is taken as miles already.
func ProcessDistance(input string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", fmt.Errorf("distance is empty")
	}

	m := distanceNumber.FindStringSubmatch(normalized)
	if m == nil {
		return "", fmt.Errorf(`Could not read a distance from "%s". Try something like "25 miles" or "40 km".`, input)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return "", fmt.Errorf(`Could not read a distance from "%s". Try something like "25 miles" or "40 km".`, input)
	}

	if strings.Contains(normalized, "km") || strings.Contains(normalized, "kilometer") {
		value *= milesPerKilometer
	}

	return fmt.Sprintf("%.1f miles", value), nil
}
