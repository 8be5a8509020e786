package database

import (
	"strconv"
	"time"
)

// NewID derives an identifier from the current time.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
