package service

import (
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/multiexpenses/internal/storage"
)

var errInternal = errors.New("internal error")

// invalidArgument builds a CodeInvalidArgument error with a formatted message.
func invalidArgument(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// notFound builds a CodeNotFound error for the named entity.
func notFound(what string) *connect.Error {
	return connect.NewError(connect.CodeNotFound, fmt.Errorf("%s not found", what))
}

// internal logs the underlying store error and returns an opaque CodeInternal
// error so storage details never reach the client.
func internal(logger *slog.Logger, msg string, err error, attrs ...any) *connect.Error {
	logger.Error(msg, append(attrs, "error", err)...)
	return connect.NewError(connect.CodeInternal, errInternal)
}

// fromStore maps storage sentinels to connect codes; anything else is internal.
func fromStore(logger *slog.Logger, msg, what string, err error, attrs ...any) *connect.Error {
	var ce *connect.Error
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, storage.ErrNotFound):
		return notFound(what)
	case errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("%s already exists", what))
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("%s is still referenced", what))
	}
	return internal(logger, msg, err, attrs...)
}
