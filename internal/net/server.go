// Package net implements the exchange's wire protocol: a length-delimited
// binary TCP protocol for submitting orders and swaps and receiving
// execution/error reports. Wire encoding itself sits outside the matching
// and pricing domain (spec.md §1); this package exists to make the engine
// and AMM reachable over a socket, not to add domain logic of its own.
package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/amm"
	"fenrir/internal/common"
	dec "fenrir/internal/decimal"
	"fenrir/internal/netutil"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 5 * time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession tracks a single connected TCP client.
type ClientSession struct {
	conn net.Conn
}

// ClientMessage links a parsed message to the client that sent it.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// Engine is the order-handling surface the server dispatches NewOrder and
// CancelOrder messages to.
type Engine interface {
	PlaceOrder(assetType common.AssetType, order common.Order) error
	CancelOrder(assetType common.AssetType, id uuid.UUID) (*common.Order, error)
	LogBook()
}

// AMM is the swap-handling surface the server dispatches Swap and Quote
// messages to.
type AMM interface {
	Swap(tokenA, tokenB, inputToken string, inputAmount, minOutput dec.D) (amm.SwapResult, error)
	Quote(tokenA, tokenB, inputToken string, inputAmount dec.D) (amm.SwapResult, error)
}

type Server struct {
	address            string
	port               int
	engine             Engine
	amm                AMM
	pool               netutil.WorkerPool
	cancel             context.CancelFunc
	clientSessions     map[string]ClientSession
	clientSessionsLock sync.Mutex
	// usernameToAddress resolves a trade's owner name to the connected
	// session reporting goes to. Sessions are keyed by address (the only
	// thing known at accept time); usernames only show up once a client
	// sends its first message, so this is filled in lazily as messages
	// arrive rather than at connection time.
	usernameToAddress map[string]string
	clientMessages    chan ClientMessage
}

// New builds a server that dispatches order messages to engine and swap
// messages to market.
func New(address string, port int, engine Engine, market AMM) *Server {
	return &Server{
		address:           address,
		port:              port,
		engine:            engine,
		amm:               market,
		pool:              netutil.NewWorkerPool(defaultNWorkers),
		clientSessions:    make(map[string]ClientSession),
		usernameToAddress: make(map[string]string),
		clientMessages:    make(chan ClientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", listener.Addr().String()).Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			log.Info().Str("address", conn.RemoteAddr().String()).Msg("new client added")
			s.addClientSession(conn)
			s.pool.Submit(conn)
		}
	}
}

// ReportTrade sends the taker an execution report and, if the maker is also
// a connected client, sends them one too. A maker who isn't a live session
// (e.g. reconnected elsewhere) simply doesn't get a push; this mirrors the
// source's best-effort reporting, not a durable outbox.
func (s *Server) ReportTrade(taker common.Order, makerOwner string, t common.Trade) error {
	takerReport, makerReport, err := generateWireTradeReports(taker, makerOwner, t)
	if err != nil {
		return err
	}

	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	if addr, ok := s.usernameToAddress[taker.Owner]; ok {
		if session, ok := s.clientSessions[addr]; ok {
			if _, err := session.conn.Write(takerReport); err != nil {
				delete(s.clientSessions, addr)
			}
		}
	}

	if addr, ok := s.usernameToAddress[makerOwner]; ok {
		if session, ok := s.clientSessions[addr]; ok {
			if _, err := session.conn.Write(makerReport); err != nil {
				delete(s.clientSessions, addr)
			}
		}
	}

	return nil
}

func (s *Server) ReportError(clientAddress string, reportedErr error) error {
	report, err := generateWireErrorReport(reportedErr)
	if err != nil {
		return err
	}

	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	client, ok := s.clientSessions[clientAddress]
	if !ok {
		return ErrClientDoesNotExist
	}

	if _, err := client.conn.Write(report); err != nil {
		delete(s.clientSessions, clientAddress)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

func (s *Server) reportSwapResult(clientAddress string, gen func() ([]byte, error)) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	client, ok := s.clientSessions[clientAddress]
	if !ok {
		return
	}

	wire, err := gen()
	if err != nil {
		log.Error().Err(err).Msg("server: failed to serialize swap/quote report")
		return
	}
	if _, err := client.conn.Write(wire); err != nil {
		delete(s.clientSessions, clientAddress)
	}
}

// sessionHandler drains parsed messages off the shared channel and executes
// them against the engine/amm. Running this on its own goroutine keeps
// order handling single-threaded from the engine's perspective regardless
// of how many connection workers are reading concurrently.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			if err := s.handleMessage(message); err != nil {
				log.Error().Err(err).Str("clientAddress", message.clientAddress).Msg("error handling message")
				s.ReportError(message.clientAddress, err)
			}
		}
	}
}

func (s *Server) handleMessage(message ClientMessage) error {
	switch message.message.GetType() {
	case NewOrder:
		msg, ok := message.message.(NewOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		s.registerUsername(msg.Username, message.clientAddress)
		ord, err := msg.Order()
		if err != nil {
			return err
		}
		if err := s.engine.PlaceOrder(msg.AssetType, ord); err != nil {
			s.ReportError(message.clientAddress, err)
			log.Error().Err(err).Str("clientAddress", message.clientAddress).Msg("error placing order")
		}

	case CancelOrder:
		msg, ok := message.message.(CancelOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		if _, err := s.engine.CancelOrder(msg.AssetType, msg.OrderUUID); err != nil {
			s.ReportError(message.clientAddress, err)
			log.Error().Err(err).Str("clientAddress", message.clientAddress).Str("uuid", msg.OrderUUID.String()).
				Msg("error cancelling order")
		}

	case LogBook:
		s.engine.LogBook()

	case Swap:
		msg, ok := message.message.(SwapMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		s.registerUsername(msg.Username, message.clientAddress)
		result, err := s.amm.Swap(msg.TokenA, msg.TokenB, msg.InputToken, msg.InputAmount, msg.MinOutput)
		if err != nil {
			s.ReportError(message.clientAddress, err)
			return nil
		}
		s.reportSwapResult(message.clientAddress, func() ([]byte, error) {
			return generateWireSwapReport(result)
		})

	case Quote:
		msg, ok := message.message.(QuoteMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		result, err := s.amm.Quote(msg.TokenA, msg.TokenB, msg.InputToken, msg.InputAmount)
		if err != nil {
			s.ReportError(message.clientAddress, err)
			return nil
		}
		s.reportSwapResult(message.clientAddress, func() ([]byte, error) {
			return generateWireQuoteReport(result)
		})

	default:
		log.Error().Int("messageType", int(message.message.GetType())).Msg("invalid message type")
		return ErrInvalidMessageType
	}
	return nil
}

// handleConnection reads the next message off a connection, parses it, and
// hands it to the session handler. It re-submits the connection to the pool
// so the next message gets its own worker turn. A non-nil error returned
// here is passed by the worker to the tomb, which then starts dying and
// stops the worker pool and the session handler with it.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed setting deadline")
		s.closeAndForget(conn)
		return nil
	}

	buffer := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			s.deleteClientSession(conn.RemoteAddr().String())
			s.closeAndForget(conn)
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			s.ReportError(conn.RemoteAddr().String(), err)
			s.pool.Submit(conn)
			return nil
		}

		s.clientMessages <- ClientMessage{
			message:       message,
			clientAddress: conn.RemoteAddr().String(),
		}
		s.pool.Submit(conn)
	}
	return nil
}

func (s *Server) closeAndForget(conn net.Conn) {
	if err := conn.Close(); err != nil {
		log.Error().Str("address", conn.RemoteAddr().String()).Err(err).Msg("error closing connection")
	}
}

func (s *Server) addClientSession(conn net.Conn) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{conn: conn}
}

func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	delete(s.clientSessions, address)
}

func (s *Server) registerUsername(username, address string) {
	if username == "" {
		return
	}
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()
	s.usernameToAddress[username] = address
}
