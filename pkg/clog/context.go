package clog

import (
	"context"
	"maps"
	"sync"
)

const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"
)

// attrSet is the mutable attribute bag a request carries. Handlers deep in
// the call chain add to it and the request logger prints it once at the end.
type attrSet struct {
	mu    sync.RWMutex
	attrs map[string]any
}

type attrSetKey struct{}

func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, attrSetKey{}, &attrSet{attrs: map[string]any{}})
}

func attrSetFrom(ctx context.Context) *attrSet {
	s, _ := ctx.Value(attrSetKey{}).(*attrSet)
	return s
}

// AddAttribute is a no-op for contexts not created by ContextWithSlog.
func AddAttribute(ctx context.Context, key string, value any) {
	AddAttributes(ctx, map[string]any{key: value})
}

// AddAttributes merges attributes into the context. Nested maps are merged
// key by key rather than replaced.
func AddAttributes(ctx context.Context, attributes map[string]any) {
	s := attrSetFrom(ctx)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mergeMaps(s.attrs, attributes)
}

func GetAttribute[T any](ctx context.Context, key string) T {
	var zero T
	s := attrSetFrom(ctx)
	if s == nil {
		return zero
	}
	s.mu.RLock()
	v, ok := s.attrs[key].(T)
	s.mu.RUnlock()
	if !ok {
		return zero
	}
	return v
}

func GetAttributes(ctx context.Context) map[string]any {
	s := attrSetFrom(ctx)
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.attrs)
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		vm, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if dm, ok := dst[k].(map[string]any); ok {
			mergeMaps(dm, vm)
			continue
		}
		dst[k] = maps.Clone(vm)
	}
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func GetError(ctx context.Context) error {
	return GetAttribute[error](ctx, ErrorAttributeKey)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}
