package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"

	synchub "bookstore/internal/sync"
)

func (a *app) handleWatch(args []string) error {
	fs := pflag.NewFlagSet("watch", pflag.ExitOnError)
	tcpAddr := fs.String("tcp", "", "read events from the TCP sync server at this address instead of /ws")
	raw := fs.Bool("raw", false, "print events as received")
	_ = fs.Parse(args)

	for {
		var err error
		if *tcpAddr != "" {
			err = watchTCP(*tcpAddr, *raw)
		} else {
			err = a.watchWS(*raw)
		}
		log.Printf("[watch] disconnected: %v", err)
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func (a *app) watchWS(raw bool) error {
	endpoint, err := websocketURL(a.baseURL, "/ws")
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[watch] connected to %s", endpoint)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		printEvent(os.Stdout, msg, raw)
	}
}

func watchTCP(addr string, raw bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[watch] connected to %s", addr)
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(os.Stdout, sc.Bytes(), raw)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// printEvent writes one line per catalog event; anything else (the
// welcome message) is printed unchanged.
func printEvent(w io.Writer, msg []byte, raw bool) {
	msg = bytes.TrimSpace(msg)
	var ev synchub.CatalogEvent
	if raw || json.Unmarshal(msg, &ev) != nil || ev.BookID == 0 {
		fmt.Fprintln(w, string(msg))
		return
	}

	title := ""
	if ev.Book != nil {
		title = fmt.Sprintf(" %q", ev.Book.Title)
	}
	by := ""
	if ev.By != "" {
		by = " by " + ev.By
	}
	fmt.Fprintf(w, "%s %s book %d%s%s\n", ev.At.Local().Format(time.Kitchen), ev.Type, ev.BookID, title, by)
}
