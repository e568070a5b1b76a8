//go:build !linux

package mpris

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/llehouerou/undertow/internal/bus"
)

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ *bus.Fabric, _ zerolog.Logger) *Adapter {
	return &Adapter{}
}

// Run blocks until ctx is done.
func (a *Adapter) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
