// Package registrar makes an installed binary directory discoverable on the
// executable search path of future sessions.
package registrar

import "context"

// Registrar durably registers a directory on the executable search path. It must be
// idempotent: registering the same directory twice leaves a single entry.
type Registrar interface {
	Register(ctx context.Context, dir string) error
}

//go:generate mockery --case underscore --output registrarmock --outpkg registrarmock --structname MockRegistrar --name Registrar

// RegistrarFunc is a helper to create registrars from functions.
type RegistrarFunc func(ctx context.Context, dir string) error

// Register satisfies Registrar interface.
func (f RegistrarFunc) Register(ctx context.Context, dir string) error { return f(ctx, dir) }

// Noop is a registrar that doesn't register anything.
var Noop = RegistrarFunc(func(context.Context, string) error { return nil })
