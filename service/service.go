package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/danielchen8624/smartdim/curve"
	"github.com/danielchen8624/smartdim/types"
)

// Gateway hands finished curves to the platform display pipeline.
type Gateway interface {
	// Apply installs the curve on every active output.
	Apply(ctx context.Context, rgb curve.RGB) error
	// Restore drops any installed curve and returns to platform
	// defaults.
	Restore(ctx context.Context) error
}

// Service owns the daemon state: the two controls, their mute flags and
// the generation counter. All mutations run through a single request
// channel, so every apply is serialized; the curve engine itself is
// pure and stateless.
type Service struct {
	params  Params
	gateway Gateway

	reqCh         chan requestWithResponse
	listener      net.Listener
	historyWriter io.Writer

	connsMu sync.Mutex
	conns   map[*connection]struct{}

	// Owned by the request goroutine after Serve starts.
	state   types.State
	options curve.Options
}

type Params struct {
	SocketPath  string
	HistoryPath string
	Options     curve.Options
}

type requestWithResponse struct {
	request types.Request
	options *curve.Options
	resCh   chan<- types.Response
}

func New(params Params, gateway Gateway) *Service {
	return &Service{
		params:  params,
		gateway: gateway,

		reqCh: make(chan requestWithResponse),
		conns: map[*connection]struct{}{},

		options: params.Options,
	}
}

func (s *Service) Listen() error {
	listener, err := net.Listen("unix", s.params.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener

	if s.params.HistoryPath != "" {
		historyWriter, err := os.OpenFile(s.params.HistoryPath, os.O_WRONLY|os.O_CREATE, 0)
		if err != nil {
			return fmt.Errorf("cannot open history file: %w", err)
		}

		s.historyWriter = historyWriter
	}

	return nil
}

func (s *Service) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	go func() {
		for {
			select {
			case rwr := <-s.reqCh:
				rwr.resCh <- s.processRequest(ctx, rwr)
				close(rwr.resCh)
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		netConn, err := s.listener.Accept()
		if err != nil {
			return fmt.Errorf("failed to accept conn: %w", err)
		}

		conn := newConnection(netConn)

		s.connsMu.Lock()
		s.conns[conn] = struct{}{}
		s.connsMu.Unlock()

		go s.handleConn(ctx, conn)
	}
}

// Update runs a request through the daemon loop on behalf of in-process
// callers (D-Bus, the solar schedule, config reload).
func (s *Service) Update(ctx context.Context, request types.Request) (types.State, error) {
	return s.enqueue(ctx, requestWithResponse{request: request})
}

// SetOptions swaps the curve tuning and reapplies the current state, so
// a config reload takes effect immediately.
func (s *Service) SetOptions(ctx context.Context, options curve.Options) (types.State, error) {
	return s.enqueue(ctx, requestWithResponse{options: &options})
}

func (s *Service) enqueue(ctx context.Context, rwr requestWithResponse) (types.State, error) {
	resCh := make(chan types.Response, 1)
	rwr.resCh = resCh

	select {
	case s.reqCh <- rwr:
	case <-ctx.Done():
		return types.State{}, fmt.Errorf("context done enqueueing request: %w", ctx.Err())
	}

	select {
	case res := <-resCh:
		if res.Error != "" {
			return types.State{}, fmt.Errorf("request failed: %s", res.Error)
		}

		return *res.State, nil
	case <-ctx.Done():
		return types.State{}, fmt.Errorf("context done awaiting response: %w", ctx.Err())
	}
}

func (s *Service) handleConn(ctx context.Context, conn *connection) {
	defer func() {
		s.connsMu.Lock()
		delete(s.conns, conn)
		s.connsMu.Unlock()

		conn.Close()
	}()

	for {
		request, err := conn.Read()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				log.Printf("Failed to decode message: %s\n", err)
			}

			return
		}

		conn.Subscribe(request.Subscribe)
		conn.Unsubscribe(request.Unsubscribe)

		resCh := make(chan types.Response, 1)

		select {
		case s.reqCh <- requestWithResponse{request: request, resCh: resCh}:
		case <-ctx.Done():
			conn.WriteLogError(types.Response{Error: "Shutting down"})
			return
		}

		select {
		case res := <-resCh:
			conn.WriteLogError(res)
		case <-ctx.Done():
			conn.WriteLogError(types.Response{Error: "Shutting down"})
			return
		}
	}
}

// processRequest applies a request to the state and drives the gateway.
// Runs on the request goroutine only.
func (s *Service) processRequest(ctx context.Context, rwr requestWithResponse) types.Response {
	request := rwr.request

	if rwr.options != nil {
		s.options = *rwr.options
	}

	changed := rwr.options != nil

	switch {
	case request.Reset:
		s.state.Intensity = 0
		s.state.Warmth = 0
		s.state.IntensityMuted = false
		s.state.WarmthMuted = false
		changed = true
	case request.State != nil:
		intensity, err := types.ParseControl(request.State.Intensity, s.state.Intensity)
		if err != nil {
			return types.Response{Error: err.Error()}
		}

		warmth, err := types.ParseControl(request.State.Warmth, s.state.Warmth)
		if err != nil {
			return types.Response{Error: err.Error()}
		}

		changed = changed || intensity != s.state.Intensity || warmth != s.state.Warmth
		s.state.Intensity = intensity
		s.state.Warmth = warmth
	}

	if request.ToggleIntensity {
		s.state.IntensityMuted = !s.state.IntensityMuted
		changed = true
	}

	if request.ToggleWarmth {
		s.state.WarmthMuted = !s.state.WarmthMuted
		changed = true
	}

	if changed {
		if err := s.apply(ctx); err != nil {
			log.Printf("Failed to apply state: %s\n", err)

			return types.Response{Error: "Failed to apply state"}
		}

		s.writeHistory()
		s.broadcastState()
	}

	state := s.state

	return types.Response{State: &state}
}

// apply rebuilds the composed curve from the effective controls and
// hands it to the gateway, or restores defaults when both controls are
// neutral.
func (s *Service) apply(ctx context.Context) error {
	intensity := s.state.Intensity
	if s.state.IntensityMuted {
		intensity = 0
	}

	warmth := s.state.Warmth
	if s.state.WarmthMuted {
		warmth = 0
	}

	rgb, ok := curve.Combined(intensity, warmth, s.options)
	if !ok {
		if err := s.gateway.Restore(ctx); err != nil {
			return fmt.Errorf("restoring defaults: %w", err)
		}
	} else {
		if err := s.gateway.Apply(ctx, rgb); err != nil {
			return fmt.Errorf("applying curve: %w", err)
		}
	}

	s.state.Enabled = ok
	s.state.Generation++

	return nil
}

func (s *Service) writeHistory() {
	if s.historyWriter == nil {
		return
	}

	line := fmt.Sprintf("\r%.3f %.3f", s.state.Intensity, s.state.Warmth)

	if _, err := s.historyWriter.Write([]byte(line)); err != nil {
		log.Printf("Failed to write history: %s\n", err)
	}
}

func (s *Service) broadcastState() {
	state := s.state
	response := types.Response{State: &state}

	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	for conn := range s.conns {
		if conn.IsSubscribed(types.SubscriptionKeyState) {
			conn.WriteLogError(response)
		}
	}
}
