// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	MaxUserIDLen = 64
	MaxColorLen  = 32
)

var (
	ErrUserIDTooLong = errors.New("user id too long")
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrColorTooLong  = errors.New("color too long")
)

type UserID string

// Point is a position on the shared canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// User is a presence record. Unique per room, not globally.
type User struct {
	ID     UserID `json:"userId"`
	Color  string `json:"color"`
	Cursor *Point `json:"cursor,omitempty"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// An empty color gets a random one.
func NewUser(id UserID, color string) (*User, error) {
	if len(id) == 0 {
		return nil, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if len(color) > MaxColorLen {
		return nil, ErrColorTooLong
	}
	if color == "" {
		color = RandomColor()
	}
	return &User{ID: id, Color: color}, nil
}

func RandomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(0x1000000))
}
