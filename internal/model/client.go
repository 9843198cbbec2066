package model

// ClientTokenRequest renews an existing anonymous client id. An empty body
// mints a new one.
type ClientTokenRequest struct {
	ClientID string `json:"client_id" binding:"omitempty,uuid"`
}
