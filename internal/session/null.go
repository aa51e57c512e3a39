package session

import (
    "context"
    "time"
)

// NullCache is the non-persistent stand-in used when no store is available.
// Writes succeed trivially and Get never finds anything.
type NullCache struct{}

func (NullCache) Put(context.Context, uint64, string, time.Duration) error { return nil }
func (NullCache) Get(context.Context, uint64) (string, bool, error)         { return "", false, nil }
func (NullCache) Delete(context.Context, uint64) error                      { return nil }
func (NullCache) Live() bool                                                { return false }
func (NullCache) Mode() string                                              { return ModeNull }
