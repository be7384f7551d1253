package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stock-stream/src/models"
)

// -----------------------------------------------------------------------------
// Connection Lifecycle
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		id:          uuid.NewString(),
		connectedAt: time.Now().UTC(),
		hub:         s,
		conn:        conn,
		// Buffered channel so one slow consumer never blocks delivery
		send: make(chan *models.MServerMessage, s.Config.Stream.ClientSendBufferSize),
	}

	s.registerClient(client)

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------

func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	s.clients[client.id] = client
	total := len(s.clients)
	s.clientsMu.Unlock()

	s.Logger.Info("Client %s connected (%d active)", client.id, total)
}

// -----------------------------------------------------------------------------

// unregisterClient is invoked exactly once, from readPump's exit. It purges
// every subscription the connection holds; an in-flight refresh cycle that
// still references the id simply finds nobody to deliver to.
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	if _, ok := s.clients[client.id]; !ok {
		s.clientsMu.Unlock()
		return
	}
	delete(s.clients, client.id)
	close(client.send)
	total := len(s.clients)
	s.clientsMu.Unlock()

	s.Registry.UnsubscribeAll(client.id)
	s.Logger.Info("Client %s disconnected (%d active)", client.id, total)
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *Server) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command from %s: %v", client.id, err)
		s.trySend(client, &models.MServerMessage{
			Type:  models.MsgSubscriptionError,
			Error: "malformed message",
		})
		return
	}

	switch cmd.Type {
	case models.CmdAuthenticate:
		s.handleAuthenticate(client, &cmd)
	case models.CmdSubscribe:
		s.handleSubscribe(client, &cmd)
	case models.CmdUnsubscribe:
		s.handleUnsubscribe(client, &cmd)
	case models.CmdSubscribeWatchlist:
		s.handleSubscribeWatchlist(client, &cmd)
	case models.CmdPing:
		s.trySend(client, &models.MServerMessage{
			Type:      models.MsgPong,
			Timestamp: time.Now().Unix(),
		})
	default:
		s.Logger.Debug("Unknown command %q from %s", cmd.Type, client.id)
	}
}

// -----------------------------------------------------------------------------

// handleAuthenticate stamps the connection's identity. A failed
// verification leaves the connection anonymous but fully able to
// subscribe; market data is not gated on auth.
func (s *Server) handleAuthenticate(client *Client, cmd *models.MClientCommand) {
	userID, err := s.Verifier.Verify(cmd.Token)
	if err != nil {
		s.trySend(client, &models.MServerMessage{
			Type:  models.MsgAuthenticationError,
			Error: "invalid token",
		})
		return
	}

	client.userID = userID
	s.trySend(client, &models.MServerMessage{
		Type:   models.MsgAuthenticated,
		UserID: userID,
	})
}

// -----------------------------------------------------------------------------

func (s *Server) handleSubscribe(client *Client, cmd *models.MClientCommand) {
	symbols := models.CanonicalSymbols(cmd.Symbols)
	if len(symbols) == 0 {
		// Malformed payload: rejected synchronously, no registry mutation.
		s.trySend(client, &models.MServerMessage{
			Type:  models.MsgSubscriptionError,
			Error: "symbols must be a non-empty list",
		})
		return
	}

	accepted, rejected := s.Registry.Subscribe(client.id, symbols)

	// Acknowledge immediately with the accepted/rejected sets.
	s.trySend(client, &models.MServerMessage{
		Type:    models.MsgSubscribed,
		Symbols: accepted,
		Errors:  rejected,
	})

	if len(accepted) == 0 {
		return
	}

	// Snapshot fetch so the client does not wait a full tick for first
	// data. Failures here are reported per-symbol, never fatal.
	stocks, failures := s.Fetcher.FetchMany(accepted)
	s.trySend(client, &models.MServerMessage{
		Type:      models.MsgInitialData,
		Stocks:    stocks,
		Errors:    failures,
		Timestamp: time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) handleUnsubscribe(client *Client, cmd *models.MClientCommand) {
	confirmed := s.Registry.Unsubscribe(client.id, cmd.Symbols)
	s.trySend(client, &models.MServerMessage{
		Type:    models.MsgUnsubscribed,
		Symbols: confirmed,
	})
}

// -----------------------------------------------------------------------------

// handleSubscribeWatchlist resolves the user's default watchlist and
// forwards it to the normal subscribe path.
func (s *Server) handleSubscribeWatchlist(client *Client, cmd *models.MClientCommand) {
	userID := cmd.UserID
	if userID == "" {
		userID = client.userID
	}
	if userID == "" {
		s.trySend(client, &models.MServerMessage{
			Type:  models.MsgSubscriptionError,
			Error: "userId required",
		})
		return
	}

	symbols, err := s.Store.DefaultWatchlistSymbols(userID)
	if err != nil {
		s.Logger.Error("Watchlist lookup failed for %s: %v", userID, err)
		s.trySend(client, &models.MServerMessage{
			Type:  models.MsgSubscriptionError,
			Error: "watchlist unavailable",
		})
		return
	}

	if len(symbols) == 0 {
		s.trySend(client, &models.MServerMessage{
			Type:    models.MsgWatchlistSubscribed,
			Symbols: []string{},
		})
		return
	}

	accepted, _ := s.Registry.Subscribe(client.id, symbols)
	s.trySend(client, &models.MServerMessage{
		Type:    models.MsgWatchlistSubscribed,
		Symbols: accepted,
	})

	if len(accepted) == 0 {
		return
	}

	stocks, failures := s.Fetcher.FetchMany(accepted)
	s.trySend(client, &models.MServerMessage{
		Type:      models.MsgInitialData,
		Stocks:    stocks,
		Errors:    failures,
		Timestamp: time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------
// Broadcast Fan-out
// -----------------------------------------------------------------------------

// Deliver pushes one refresh cycle's results to the connections
// subscribed to each symbol. Failures are symbol-scoped: a connection
// subscribed to both a good and a bad symbol gets both messages
// independently. Per symbol, cycles are serialized upstream, so each
// client's FIFO send buffer preserves tick order.
func (s *Server) Deliver(results []models.MQuote, failures []models.MQuoteFailure) {
	now := time.Now().Unix()

	for i := range results {
		quote := results[i]
		msg := &models.MServerMessage{
			Type:      models.MsgStockUpdate,
			Symbol:    quote.Symbol,
			Data:      &quote,
			Timestamp: now,
		}
		s.deliverToSubscribers(quote.Symbol, msg)
	}

	for _, failure := range failures {
		msg := &models.MServerMessage{
			Type:      models.MsgStockError,
			Symbol:    failure.Symbol,
			Error:     failure.Reason,
			Timestamp: now,
		}
		s.deliverToSubscribers(failure.Symbol, msg)
	}
}

// -----------------------------------------------------------------------------

func (s *Server) deliverToSubscribers(symbol string, msg *models.MServerMessage) {
	// The read lock is held across the non-blocking send so a concurrent
	// unregister cannot close the channel mid-push.
	for _, connID := range s.Registry.ConnectionsFor(symbol) {
		s.clientsMu.RLock()
		client, ok := s.clients[connID]
		if ok {
			s.trySend(client, msg)
		}
		s.clientsMu.RUnlock()
		// A missing connection disconnected mid-cycle; not an error,
		// just a no-op.
	}
}

// -----------------------------------------------------------------------------

// trySend is a non-blocking push. A full buffer means the consumer is too
// slow for this update; the message is dropped for that connection so one
// broken channel never stalls delivery to the others.
func (s *Server) trySend(client *Client, msg *models.MServerMessage) {
	select {
	case client.send <- msg:
	default:
		s.Logger.Warning("Client %s send buffer full, dropping %s", client.id, msg.Type)
	}
}
