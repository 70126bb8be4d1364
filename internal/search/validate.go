package search

import (
	"regexp"
	"strconv"
	"strings"
)

// City names are alphabetic words of at least three letters; spaces and
// hyphens allow for multi-word names.
var cityNamePattern = regexp.MustCompile(`^[\p{L}][\p{L} -]{2,}$`)

// ValidCityName reports whether s looks like a real city name.
func ValidCityName(s string) bool {
	return cityNamePattern.MatchString(strings.TrimSpace(s))
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// ParseHotelCount accepts an integer in [1, max].
func ParseHotelCount(s string, max int) (int, error) {
	n, ok := parseInt(s)
	if !ok {
		return 0, invalid("That is not a number. How many hotels should I show (1–%d)?", max)
	}
	if n < 1 || n > max {
		return 0, invalid("Please pick a number between 1 and %d.", max)
	}
	return n, nil
}

// ParseImageCount accepts an integer in [1, max].
func ParseImageCount(s string, max int) (int, error) {
	n, ok := parseInt(s)
	if !ok {
		return 0, invalid("That is not a number. How many photos per hotel (1–%d)?", max)
	}
	if n < 1 || n > max {
		return 0, invalid("Please pick a number between 1 and %d.", max)
	}
	return n, nil
}

// ParseDistance accepts a positive integer number of kilometres, unbounded
// from above.
func ParseDistance(s string) (int, error) {
	n, ok := parseInt(s)
	if !ok {
		return 0, invalid("That is not a number. How far from the centre, in whole kilometres?")
	}
	if n < 1 {
		return 0, invalid("Distance must be at least 1 km.")
	}
	return n, nil
}

// ParseLowPrice accepts a non-negative integer.
func ParseLowPrice(s string) (int, error) {
	n, ok := parseInt(s)
	if !ok {
		return 0, invalid("That is not a number. What is the minimum price per night, in dollars?")
	}
	if n < 0 {
		return 0, invalid("The minimum price cannot be negative.")
	}
	return n, nil
}

// ParseHighPrice accepts a non-negative integer no smaller than low. The
// two failure modes carry distinct messages.
func ParseHighPrice(s string, low int) (int, error) {
	n, ok := parseInt(s)
	if !ok {
		return 0, invalid("That is not a number. What is the maximum price per night, in dollars?")
	}
	if n < 0 {
		return 0, invalid("The maximum price cannot be negative.")
	}
	if n < low {
		return 0, invalid("The maximum price cannot be below the minimum of $%d.", low)
	}
	return n, nil
}
