package domain

import "encoding/json"

// RegisterResponse is the wire payload returned by the register endpoint.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// LoginResponse is the wire payload returned by the login endpoint.
// On failure the identifying fields are empty strings so older clients can
// bind them without null handling.
type LoginResponse struct {
	ID      string          `json:"id"`
	Session string          `json:"session"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Banned  bool            `json:"banned"`
}

// SaveResponse is the wire payload returned by the save endpoint.
type SaveResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
