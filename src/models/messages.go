package models

import "encoding/json"

// -----------------------------------------------------------------------------
// Client -> Server Commands
// -----------------------------------------------------------------------------

// MClientCommand is the envelope for every inbound websocket message.
// Payload fields are optional depending on Type.
type MClientCommand struct {
	Type    string   `json:"type"`
	UserID  string   `json:"userId,omitempty"`
	Token   string   `json:"token,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

// Inbound message types.
const (
	CmdAuthenticate       = "authenticate"
	CmdSubscribe          = "subscribe"
	CmdUnsubscribe        = "unsubscribe"
	CmdSubscribeWatchlist = "subscribe_watchlist"
	CmdPing               = "ping"
)

// -----------------------------------------------------------------------------
// Server -> Client Messages
// -----------------------------------------------------------------------------

// MServerMessage is the envelope for every outbound websocket message.
type MServerMessage struct {
	Type      string          `json:"type"`
	Symbol    string          `json:"symbol,omitempty"`
	Symbols   []string        `json:"symbols,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Data      *MQuote         `json:"data,omitempty"`
	Stocks    []MQuote        `json:"stocks,omitempty"`
	Errors    []MQuoteFailure `json:"errors,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Outbound message types.
const (
	MsgAuthenticated       = "authenticated"
	MsgAuthenticationError = "authentication_error"
	MsgSubscribed          = "subscribed"
	MsgInitialData         = "initial_data"
	MsgUnsubscribed        = "unsubscribed"
	MsgWatchlistSubscribed = "watchlist_subscribed"
	MsgSubscriptionError   = "subscription_error"
	MsgPong                = "pong"
	MsgStockUpdate         = "stock_update"
	MsgStockError          = "stock_error"
)

// -----------------------------------------------------------------------------

// Encode marshals the message for the wire. Kept as a method so callers can
// serialize once and fan the same bytes out to many connections.
func (m *MServerMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}
