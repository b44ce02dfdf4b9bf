package utils

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/paulmach/orb"
)

// Route codes are short municipal identifiers such as "500T" or "KM12".
var validIDPattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+$`)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

func ValidateLimit(limit, maxLimit int) error {
	if limit < 1 || limit > maxLimit {
		return fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return nil
}

// ValidateBound checks each corner and that min does not exceed max.
func ValidateBound(b orb.Bound) map[string][]string {
	fieldErrors := make(map[string][]string)

	for key, lon := range map[string]float64{"minLon": b.Min.Lon(), "maxLon": b.Max.Lon()} {
		if err := ValidateLongitude(lon); err != nil {
			fieldErrors[key] = append(fieldErrors[key], err.Error())
		}
	}
	for key, lat := range map[string]float64{"minLat": b.Min.Lat(), "maxLat": b.Max.Lat()} {
		if err := ValidateLatitude(lat); err != nil {
			fieldErrors[key] = append(fieldErrors[key], err.Error())
		}
	}
	if len(fieldErrors) > 0 {
		return fieldErrors
	}

	if b.Min.Lon() > b.Max.Lon() {
		fieldErrors["minLon"] = append(fieldErrors["minLon"], "minLon must not exceed maxLon")
	}
	if b.Min.Lat() > b.Max.Lat() {
		fieldErrors["minLat"] = append(fieldErrors["minLat"], "minLat must not exceed maxLat")
	}
	return fieldErrors
}
