// Command corewire-echo drives a corewire Session over a real TCP
// connection, in listener or dialer mode. It exists purely to exercise the
// library end-to-end: opening a socket, pumping bytes through Session.Recv,
// and writing whatever Session hands to Handlers.Send is exactly the
// transport glue corewire itself never owns.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernmesh/corewire"
	"go.uber.org/zap"
)

// echoExtensionID is the extension id this demo uses for its one message
// kind: the dialer sends a payload, the listener echoes it back verbatim.
const echoExtensionID = 1

func main() {
	mode := flag.String("mode", "listener", "listener or dialer")
	addr := flag.String("addr", "127.0.0.1:4821", "address to listen on or dial")
	payload := flag.String("msg", "hello from corewire-echo", "payload to send in dialer mode")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	switch *mode {
	case "listener":
		runListener(ctx, logger, *addr)
	case "dialer":
		runDialer(ctx, logger, *addr, *payload)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

func runListener(ctx context.Context, logger *zap.Logger, addr string) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
	defer func() { _ = ln.Close() }()
	logger.Info("listening", zap.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("accept", zap.Error(err))
			continue
		}
		go serveConn(logger, conn)
	}
}

// serveConn runs a responder Session over conn, echoing any extension
// payload with id echoExtensionID back to the sender on the same
// channel/id. Extensions with other ids are logged and not echoed.
func serveConn(logger *zap.Logger, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	var sess *corewire.Session
	var err error
	sess, err = corewire.New(false, corewire.Handlers{
		Send: func(b []byte) {
			if _, err := conn.Write(b); err != nil {
				logger.Warn("write", zap.Error(err))
			}
		},
		Destroy: func(err error) {
			logger.Info("session destroyed", zap.Error(err))
		},
		OnHandshake: func() {
			logger.Info("handshake complete")
		},
		OnExtension: func(channel, id uint64, payload []byte) {
			logger.Info("extension received", zap.Uint64("channel", channel), zap.Uint64("id", id), zap.Int("bytes", len(payload)))
			if id == echoExtensionID {
				if _, err := sess.SendExtension(channel, id, payload); err != nil {
					logger.Warn("echo reply", zap.Error(err))
				}
			}
		},
	})
	if err != nil {
		logger.Error("create session", zap.Error(err))
		return
	}
	pump(logger, conn, sess)
}

func runDialer(ctx context.Context, logger *zap.Logger, addr, payload string) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		logger.Fatal("dial", zap.Error(err))
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	var sess *corewire.Session
	sess, err = corewire.New(true, corewire.Handlers{
		Send: func(b []byte) {
			if _, err := conn.Write(b); err != nil {
				logger.Warn("write", zap.Error(err))
			}
		},
		Destroy: func(err error) {
			logger.Info("session destroyed", zap.Error(err))
			close(done)
		},
		OnExtension: func(channel, id uint64, payload []byte) {
			logger.Info("echo reply received", zap.ByteString("payload", payload))
			close(done)
		},
	})
	if err != nil {
		logger.Fatal("create session", zap.Error(err))
	}

	go pump(logger, conn, sess)

	go func() {
		for !handshakeReady(sess) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
		if _, err := sess.SendExtension(0, echoExtensionID, []byte(payload)); err != nil {
			logger.Warn("send extension", zap.Error(err))
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		logger.Warn("timed out waiting for echo reply")
	}
}

// handshakeReady polls RemotePublicKey's ok flag rather than adding a
// separate OnHandshake handler, since the dialer only needs to know it's
// safe to send — it doesn't do anything with the remote key itself.
func handshakeReady(sess *corewire.Session) bool {
	_, ok := sess.RemotePublicKey()
	return ok
}

// pump feeds conn's bytes into sess.Recv until the connection or the
// session ends. A fatal Recv error means the session already destroyed
// itself; pump just stops.
func pump(logger *zap.Logger, conn net.Conn, sess *corewire.Session) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if rerr := sess.Recv(buf[:n]); rerr != nil {
				logger.Info("session recv error", zap.Error(rerr))
				return
			}
		}
		if err != nil {
			return
		}
	}
}
