package thermal

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stateMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fanctrl_thermal",
		Name:      "state",
		Help:      "Thermal controller state (label values are initializing, running)",
	}, []string{"state"})
)

// State of the thermal controller. Running is terminal.
type State int

const (
	StateInitializing State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

type controllerState struct {
	mutex sync.Mutex

	state       State
	runningChan chan struct{}
}

func newControllerState() *controllerState {
	s := &controllerState{
		runningChan: make(chan struct{}),
	}
	s.publish()
	return s
}

// SetRunning moves the state machine into its terminal state.
func (s *controllerState) SetRunning() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state == StateRunning {
		return
	}
	s.state = StateRunning
	close(s.runningChan)
	s.publish()
}

func (s *controllerState) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

func (s *controllerState) WaitForRunning(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.runningChan:
		return nil
	}
}

func (s *controllerState) publish() {
	if s.state == StateRunning {
		stateMetric.WithLabelValues(StateInitializing.String()).Set(0)
		stateMetric.WithLabelValues(StateRunning.String()).Set(1)
	} else {
		stateMetric.WithLabelValues(StateInitializing.String()).Set(1)
		stateMetric.WithLabelValues(StateRunning.String()).Set(0)
	}
}
