// Command kitedb-server exposes a single database over a line-based
// TCP protocol: one newline-terminated query in, one JSON response
// line out. It defines no framing beyond newlines and no
// authentication; the database itself stays unaware of the network.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/kitedb/kitedb/internal/config"
	"github.com/kitedb/kitedb/internal/kitelog"
	"github.com/kitedb/kitedb/pkg/kitedb"
)

// response is the line-based protocol's single reply shape, mirroring
// the {status, message, data} JSON contract every connection speaks.
type response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func main() {
	addr := flag.String("addr", ":9595", "TCP listen address")
	file := flag.String("file", "./kitedb.db", "database file path")
	logLevel := flag.String("log-level", "info", "log level: trace|debug|info|warn|error")
	flag.Parse()

	log := kitelog.New("kitedb-server", kitelog.ParseLevel(*logLevel), nil)

	cfg := config.Defaults()
	cfg.LogLevel = *logLevel
	db, err := kitedb.Open(*file, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen %s: %v\n", *addr, err)
		os.Exit(1)
	}
	log.Infof("listening on %s, database %s", *addr, *file)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Infof("shutting down")
		ln.Close()
	}()

	srv := &server{db: db, log: log}
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Infof("listener closed: %v", err)
			return
		}
		go srv.handle(conn)
	}
}

type server struct {
	db  *kitedb.DB
	log *kitelog.Logger
}

// handle serves one connection until it closes or hits an I/O error:
// read a line, execute it, write a JSON response line, repeat.
func (s *server) handle(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	s.log.Debugf("connection from %s", remote)

	reader := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)
	defer writer.Flush()

	for reader.Scan() {
		line := reader.Text()
		if line == "" {
			continue
		}

		resp := s.execute(line)
		payload, err := json.Marshal(resp)
		if err != nil {
			s.log.Errorf("marshal response for %s: %v", remote, err)
			continue
		}
		if _, err := writer.Write(payload); err != nil {
			s.log.Debugf("write to %s: %v", remote, err)
			return
		}
		if _, err := writer.WriteString("\n"); err != nil {
			s.log.Debugf("write to %s: %v", remote, err)
			return
		}
		if err := writer.Flush(); err != nil {
			s.log.Debugf("flush to %s: %v", remote, err)
			return
		}
	}
	if err := reader.Err(); err != nil {
		s.log.Debugf("read from %s: %v", remote, err)
	}
}

func (s *server) execute(line string) response {
	rows, err := s.db.ExecuteQuery(line)
	if err != nil {
		return response{Status: "error", Message: err.Error()}
	}
	return response{Status: "success", Data: rows}
}
