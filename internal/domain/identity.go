package domain

// Identity is the externally-authenticated caller. Authentication itself lives
// outside this service; handlers hand the parsed identity down so the mutating
// admin operations can authorize without trusting the transport layer.
type Identity struct {
	UserID string
	Admin  bool
}
