package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no active room matches a code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrInvalidState is returned when an operation does not apply to the
	// room's or timer's current state (late join, double pause, etc).
	ErrInvalidState = errors.New("operation not valid in current state")
	// ErrNotHost is returned when a non-host connection invokes a host-only
	// operation.
	ErrNotHost = errors.New("only the host may perform this action")
	// ErrCodeSpaceExhausted is returned when a unique room code could not be
	// allocated after the attempt ceiling.
	ErrCodeSpaceExhausted = errors.New("unable to allocate unique room code")
	// ErrPlayerNotFound is returned when a connection acts on a room it never
	// joined.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrAlreadyInRoom is returned when a connection tries to create or join
	// a second room.
	ErrAlreadyInRoom = errors.New("connection already belongs to a room")
	// ErrBankEmpty indicates the question bank could not be loaded or holds
	// no questions.
	ErrBankEmpty = errors.New("question bank is empty")
)
