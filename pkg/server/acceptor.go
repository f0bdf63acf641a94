package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"

	"github.com/pg9182/parcel/pkg/framesock"
	"github.com/pg9182/parcel/pkg/registry"
)

// refusalMessage is sent verbatim to a client rejected for lack of
// capacity (original_source/src/server_tcp.c:main).
const refusalMessage = "Connection refused by the server."

// pollInterval bounds how long the acceptor blocks in Accept before
// re-checking administrator stdin, standing in for the original's
// non-blocking listening socket (spec.md §4.3, "the listening socket is
// placed in non-blocking mode so the acceptor can interleave stdin
// handling").
const pollInterval = 200 * time.Millisecond

// acceptor is the non-blocking accept loop plus administrator console
// (spec.md §4.9).
type acceptor struct {
	listener *net.TCPListener
	pool     *pool
	registry *registry.Registry
	stdin    *bufio.Scanner
	log      zerolog.Logger
}

func newAcceptor(listener *net.TCPListener, p *pool, reg *registry.Registry, log zerolog.Logger) *acceptor {
	return &acceptor{
		listener: listener,
		pool:     p,
		registry: reg,
		stdin:    bufio.NewScanner(os.Stdin),
		log:      log,
	}
}

func (a *acceptor) printHelp() {
	fmt.Println("> commands :")
	fmt.Println("> quit : to close the server, only available when no client is connected.")
}

// serve runs the accept loop until an administrator "quit" or stdin EOF.
func (a *acceptor) serve() {
	for {
		if a.pool.isEmpty() {
			fmt.Print("s> ")
			if !a.stdin.Scan() {
				return
			}
			switch strings.TrimSpace(a.stdin.Text()) {
			case "quit":
				return
			case "help":
				a.printHelp()
			}
		}

		a.listener.SetDeadline(time.Now().Add(pollInterval))
		conn, err := a.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			a.log.Warn().Err(err).Msg("accept failed")
			continue
		}

		a.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		metrics.GetOrCreateCounter("parcel_connections_accepted_total").Inc()

		if w, ok := a.pool.tryAcquire(); ok {
			w.assignConn(conn)
		} else {
			metrics.GetOrCreateCounter("parcel_connections_refused_total").Inc()
			a.refuse(conn)
		}
	}
}

// refuse drains one framed message from conn (an observable quirk of the
// original whose purpose is undocumented — spec.md §9, Open Questions;
// preserved here for bug-for-bug compatibility with S4), then sends the
// plaintext refusal string and closes the socket.
func (a *acceptor) refuse(conn net.Conn) {
	defer conn.Close()
	tcp := framesock.NewTCPConn(conn)
	tcp.RecvFrame()
	if err := tcp.SendFrame([]byte(refusalMessage)); err != nil {
		a.log.Debug().Err(err).Msg("refusal send failed")
	}
}
