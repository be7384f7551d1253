package interfaces

// -----------------------------------------------------------------------------
// IAuthVerifier stamps a connection's identity. It is never used to gate
// subscribe operations; anonymous connections may subscribe to market data.
// -----------------------------------------------------------------------------

type IAuthVerifier interface {

	// Verify checks the token and returns the user identifier it carries.
	// Any token that does not validate returns helpers.ErrInvalidToken.
	Verify(token string) (string, error)
}
