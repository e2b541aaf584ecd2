package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/swarnabindu/prashan/internal/domain/registration"
)

// LocalProvider lists registrations held on the device.
type LocalProvider interface {
	Registrations(ctx context.Context) ([]*registration.Registration, error)
}

// RemoteProvider lists registrations held by the server.
type RemoteProvider interface {
	Registrations(ctx context.Context) ([]*registration.Registration, error)
}

// View is a merged patient list. Offline reports whether the remote side
// was unavailable; RemoteErr carries the reason.
type View struct {
	Patients  []*registration.Registration
	Offline   bool
	RemoteErr error
}

type Service struct {
	local  LocalProvider
	remote RemoteProvider
	logger zerolog.Logger
}

// NewService builds a reconciler. remote may be nil for a device with no
// server configured.
func NewService(local LocalProvider, remote RemoteProvider, logger zerolog.Logger) *Service {
	return &Service{local: local, remote: remote, logger: logger}
}

// Patients fetches both sides concurrently and merges them. Only a local
// failure is returned; a remote failure is logged and yields the local
// list alone.
func (s *Service) Patients(ctx context.Context) (*View, error) {
	var local, remote []*registration.Registration
	var remoteErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		regs, err := s.local.Registrations(gctx)
		if err != nil {
			return fmt.Errorf("local registrations: %w", err)
		}
		local = regs
		return nil
	})
	if s.remote != nil {
		g.Go(func() error {
			regs, err := s.remote.Registrations(gctx)
			if err != nil {
				remoteErr = err
				return nil
			}
			remote = regs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if remoteErr != nil {
		s.logger.Warn().Err(remoteErr).Int("local", len(local)).Msg("remote registrations unavailable, showing offline data")
		return &View{Patients: Merge(local, nil), Offline: true, RemoteErr: remoteErr}, nil
	}
	return &View{Patients: Merge(local, remote), Offline: s.remote == nil}, nil
}
