package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"heatfield/material"
	"heatfield/model"
)

// Server accepts websocket connections and runs one simulation hub per
// connection.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	reg      *material.Registry
}

func NewServer(addr string, upgrader websocket.Upgrader, reg *material.Registry) *Server {
	return &Server{
		addr:     addr,
		upgrader: upgrader,
		reg:      reg,
	}
}

// serveWs handles one websocket peer until it disconnects.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()

	hub := NewHub(s.reg, conn)
	defer hub.close()
	log.WithField("peer", conn.RemoteAddr().String()).Info("front end connected")

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			log.WithError(err).Info("front end disconnected")
			return
		}
		hub.handle(msg)
	}
}

func (s *Server) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	log.WithField("addr", s.addr).Info("listening")
	return http.ListenAndServe(s.addr, mux)
}
