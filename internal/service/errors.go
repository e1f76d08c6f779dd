package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("you do not have permission to do that")
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
	ErrInvalidRole      = errors.New("invalid role")
)
