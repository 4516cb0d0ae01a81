package domain

import (
	"errors"
	"time"
)

const (
	MaxRoomNameLen = 64
	DefaultRoom    = RoomName("default")
)

var ErrRoomNameTooLong = errors.New("room name too long")

type RoomName string

type Room struct {
	Name      RoomName  `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func ValidateRoomName(name RoomName) error {
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	return nil
}
