package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"heatfield/config"
	"heatfield/material"
	"heatfield/mesh"
	"heatfield/model"
	"heatfield/solver"
)

// Hub owns one websocket connection and the simulation it drives. The
// front end submits an environment, starts the run, and receives slice
// snapshots of the z=0 plane while it progresses.
type Hub struct {
	reg  *material.Registry
	conn *websocket.Conn

	// wmu serializes writers on the connection: the request handler,
	// the run goroutine and the push loop.
	wmu sync.Mutex

	mu      sync.Mutex
	sim     *solver.Solver
	req     model.SimRequest
	calc    *solver.CalcHub
	running bool
}

func NewHub(reg *material.Registry, conn *websocket.Conn) *Hub {
	return &Hub{reg: reg, conn: conn}
}

func (h *Hub) write(msg model.Msg) {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	if err := h.conn.WriteJSON(&msg); err != nil {
		log.WithError(err).Error("write to front end failed")
	}
}

func (h *Hub) writeError(err error) {
	h.write(model.Msg{Type: model.MsgError, Content: err.Error()})
}

// handle dispatches one front-end request.
func (h *Hub) handle(msg model.Msg) {
	switch msg.Type {
	case model.MsgEnv:
		if err := h.setEnv([]byte(msg.Content)); err != nil {
			h.writeError(err)
			return
		}
		h.write(model.Msg{Type: model.MsgEnvSet, Content: "env is set"})
	case model.MsgStart:
		if err := h.start(); err != nil {
			h.writeError(err)
		}
	case model.MsgStop:
		h.stop()
		h.write(model.Msg{Type: model.MsgStopped})
	default:
		log.WithField("type", msg.Type).Warn("no such message type")
	}
}

func (h *Hub) setEnv(content []byte) error {
	var req model.SimRequest
	if err := json.Unmarshal(content, &req); err != nil {
		return fmt.Errorf("server: bad env payload: %w", err)
	}
	if req.Dt <= 0 {
		return fmt.Errorf("server: dt must be positive, got %g", req.Dt)
	}
	if req.Duration < 0 {
		return fmt.Errorf("server: duration must not be negative, got %g", req.Duration)
	}
	mtl, err := h.reg.Lookup(req.Material)
	if err != nil {
		return err
	}
	layout, err := config.ParseLayout(req.Layout)
	if err != nil {
		return err
	}
	policy, err := config.ParsePolicy(req.Policy)
	if err != nil {
		return err
	}
	m, err := mesh.Build(mesh.Spec{
		NX: req.NX, NY: req.NY, NZ: req.NZ,
		LX: req.LX, LY: req.LY, LZ: req.LZ,
		Mtl:     mtl,
		Layout:  layout,
		Initial: req.Initial,
		Left:    req.Left,
		Right:   req.Right,
		Front:   req.Front,
		Rear:    req.Rear,
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return fmt.Errorf("server: a run is in progress, stop it first")
	}
	if h.sim != nil {
		h.sim.Close()
	}
	h.sim = solver.New(m, policy, req.Workers)
	h.req = req
	log.WithFields(log.Fields{
		"grid":     fmt.Sprintf("%dx%dx%d", req.NX, req.NY, req.NZ),
		"material": mtl.Name(),
		"layout":   layout,
		"policy":   policy,
	}).Info("environment set")
	return nil
}

func (h *Hub) start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sim == nil {
		return fmt.Errorf("server: no environment set")
	}
	if h.running {
		return fmt.Errorf("server: already running")
	}
	h.calc = solver.NewCalcHub()
	h.running = true
	go h.pushLoop(h.calc)
	go h.run(h.sim, h.req, h.calc)
	return nil
}

func (h *Hub) run(sim *solver.Solver, req model.SimRequest, calc *solver.CalcHub) {
	err := sim.AdvanceStreaming(req.Duration, req.Dt, req.PushEvery, calc)
	close(calc.PeriodResult)

	h.mu.Lock()
	h.running = false
	h.mu.Unlock()

	if err != nil {
		h.writeError(err)
		return
	}
	h.write(model.Msg{Type: model.MsgFinished})
}

func (h *Hub) pushLoop(calc *solver.CalcHub) {
	for range calc.PeriodResult {
		msg, err := h.slice()
		if err != nil {
			log.WithError(err).Error("snapshot push failed")
			continue
		}
		h.write(msg)
	}
}

// slice packages the current z=0 plane as a response message.
func (h *Hub) slice() (model.Msg, error) {
	h.mu.Lock()
	sim := h.sim
	h.mu.Unlock()

	p, ok := sim.Snapshot(0)
	if !ok {
		return model.Msg{}, fmt.Errorf("server: mesh has no z=0 slice")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return model.Msg{}, err
	}
	return model.Msg{Type: model.MsgSlice, Content: string(data)}, nil
}

func (h *Hub) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.calc != nil {
		h.calc.StopSignal()
	}
}

// close stops any run and frees the solver. Called when the connection
// goes away.
func (h *Hub) close() {
	h.stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sim != nil && !h.running {
		h.sim.Close()
		h.sim = nil
	}
}
