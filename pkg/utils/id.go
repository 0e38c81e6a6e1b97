package utils

import "github.com/google/uuid"

// GenerateDeviceID returns a fresh device identifier.
func GenerateDeviceID() string {
	return uuid.New().String()
}
