package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"rotor/model"
)

type Server struct {
	addr     string
	upgrader websocket.Upgrader
	env      *Env
}

func NewServer(addr string, upgrader websocket.Upgrader, env *Env) *Server {
	return &Server{
		addr:     addr,
		upgrader: upgrader,
		env:      env,
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket 升级失败: ", err)
		return
	}
	defer conn.Close()
	log.WithField("remote", conn.RemoteAddr().String()).Info("连接建立")

	hub := NewHub(s.env, conn)
	go hub.handleRequest()
	go hub.handleResponse()
	for {
		var msg model.Msg
		if err = conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("读取消息失败: ", err)
			}
			break
		}
		hub.msg <- msg
	}
	close(hub.msg)
	<-hub.done
	log.WithField("remote", conn.RemoteAddr().String()).Info("连接关闭")
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	return mux
}

func (s *Server) Serve() error {
	log.WithField("addr", s.addr).Info("服务启动")
	return http.ListenAndServe(s.addr, s.Handler())
}
