package main

import (
	"flag"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"rotor/airfoil"
	"rotor/calculator"
	"rotor/server"
	"rotor/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func main() {
	path := flag.String("conf", "conf/config.ini", "配置文件路径")
	flag.Parse()

	file, err := ini.Load(*path)
	if err != nil {
		log.Fatal("配置文件读取错误，请检查文件路径: ", err)
	}
	setupLog(file.Section("log"))

	cfg, err := calculator.FromIni(file)
	if err != nil {
		log.Fatal("计算参数错误: ", err)
	}
	env := &server.Env{Config: cfg}

	if dir := file.Section("airfoil").Key("dir").String(); dir != "" {
		lib, err := airfoil.LoadDir(dir)
		if err != nil {
			log.Fatal("翼型库加载失败: ", err)
		}
		env.Polars = lib
	}
	if dbPath := file.Section("store").Key("path").String(); dbPath != "" {
		s, err := store.NewService(dbPath)
		if err != nil {
			log.Fatal(err)
		}
		defer s.Close()
		env.Store = s
	}

	upgrader.CheckOrigin = func(r *http.Request) bool {
		return true
	}
	addr := file.Section("server").Key("addr").MustString(":9000")
	if err = server.NewServer(addr, upgrader, env).Serve(); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

func setupLog(sec *ini.Section) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(sec.Key("level").MustString("info"))
	if err != nil {
		log.Warn("日志级别无效，使用 info: ", err)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
