package dto

// PushSubscribeRequest is the browser PushSubscription JSON
type PushSubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys"`
}

// PushUnsubscribeRequest names the endpoint to deactivate
type PushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// PushPublicKeyResponse exposes the VAPID public key to browsers
type PushPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
	Enabled   bool   `json:"enabled"`
}
