package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/crewdesk/pkg/storage"
)

// wrapStorageError reports a missing object as NotFound when notFoundOK is
// set. Every other storage failure is an Internal error whose message hides
// the backend detail.
func wrapStorageError(op, target string, err error, notFoundOK bool) error {
	if notFoundOK && errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to %s %s: %w", op, target, err))
}

func WrapStorageReadError(target string, err error) error {
	return wrapStorageError("read", target, err, true)
}

func WrapStorageWriteError(target string, err error) error {
	return wrapStorageError("write", target, err, false)
}

func WrapStorageDeleteError(target string, err error) error {
	return wrapStorageError("delete", target, err, true)
}
