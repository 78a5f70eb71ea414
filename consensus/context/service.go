// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package context

import (
	"context"
	"errors"
	"sync"

	"git.gammaspectra.live/monerod/consensus/chaincfg"
	"git.gammaspectra.live/monerod/consensus/consensus/pow"
	"lukechampine.com/uint128"
)

// ErrServiceClosed is returned by a call made after Close, or one in
// flight when Close is invoked.
var ErrServiceClosed = errors.New("context: service closed")

// Service is the external-facing handle to the context actor. Every
// method sends a request on the actor's channel and blocks on its own
// response channel, so concurrent callers never observe a torn view of
// the caches: the actor only ever processes one request at a time.
//
// This function is safe for concurrent access.
type Service struct {
	reqs chan request
	stop chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// NewService starts the context actor loaded from store at the chain's
// current height and returns a handle to it. Call Close to stop the
// actor's goroutine.
func NewService(store chainStore, params *chaincfg.Params, vmBuilder VMBuilder) (*Service, error) {
	t, err := newTask(store, params, vmBuilder)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		reqs: make(chan request),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go svc.run(t)
	return svc, nil
}

func (s *Service) run(t *task) {
	defer close(s.done)
	for {
		select {
		case req := <-s.reqs:
			req.resp <- t.handle(req)
		case <-s.stop:
			return
		}
	}
}

// Close stops the actor goroutine. Outstanding calls in flight when Close
// is invoked may return ErrServiceClosed instead of a result.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Service) call(ctx context.Context, req request) (response, error) {
	req.resp = make(chan response, 1)
	select {
	case s.reqs <- req:
	case <-s.stop:
		return response{}, ErrServiceClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
	select {
	case resp := <-req.resp:
		return resp, resp.err
	case <-s.stop:
		return response{}, ErrServiceClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

// GetContext returns a snapshot of the chain's current context.
func (s *Service) GetContext(ctx context.Context) (BlockContext, error) {
	resp, err := s.call(ctx, request{kind: reqGetContext})
	return resp.context, err
}

// BatchGetDifficulties returns the next-block difficulty as it would be
// computed for each of heights under the current cache state. Used by the
// syncer to validate a batch of headers without updating the context for
// every one.
func (s *Service) BatchGetDifficulties(ctx context.Context, heights []uint64) ([]uint128.Uint128, error) {
	resp, err := s.call(ctx, request{kind: reqBatchDifficulties, batchHeights: heights})
	return resp.diffs, err
}

// GetCurrentRxVM returns the RandomX VM for the seed active at height,
// building it first if it is not already cached.
func (s *Service) GetCurrentRxVM(ctx context.Context, height uint64) (pow.VM, error) {
	resp, err := s.call(ctx, request{kind: reqGetVM, rxHeight: height})
	if err != nil {
		return nil, err
	}
	return resp.vm, nil
}

// NewRXVM registers an externally constructed RandomX VM for seedHeight,
// skipping a later synchronous build when that seed becomes current.
func (s *Service) NewRXVM(ctx context.Context, seedHeight uint64, vm pow.VM) error {
	_, err := s.call(ctx, request{kind: reqNewVM, newVM: vmRegistration{seedHeight: seedHeight, vm: vm}})
	return err
}

// Update folds a newly accepted block into every cache.
func (s *Service) Update(ctx context.Context, data NewBlockData) error {
	_, err := s.call(ctx, request{kind: reqUpdate, newBlock: data})
	return err
}
