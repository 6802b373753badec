package handler

import "errors"

var (
	ErrFailedToDecodeRequestBody = errors.New("failed to decode request body")
	ErrInvalidRequest            = errors.New("invalid request")
	ErrRouteNotFound             = errors.New("route not found")
	InternalServerError          = errors.New("server encountered a problem and could not process your request")
)
