package service

import "github.com/pkg/errors"

var (
	ErrNotDestroyed     = errors.New("record not destroyed")
	ErrNotSoftDeletable = errors.New("record type is not soft deletable")
)
