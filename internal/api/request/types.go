package request

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// CreateUserRequest is the request body for creating a user
type CreateUserRequest struct {
	Name              string `json:"name"`
	Password          string `json:"password"`
	Email             string `json:"email,omitempty"`
	Admin             bool   `json:"admin,omitempty"`
	FactorioLinkToken string `json:"factorioLinkToken,omitempty"`
	Description       string `json:"description,omitempty"`
}

// UpdateUserRequest is the request body for editing a user.
// Absent fields are left unchanged.
type UpdateUserRequest struct {
	Password          *string `json:"password,omitempty"`
	Email             *string `json:"email,omitempty"`
	Admin             *bool   `json:"admin,omitempty"`
	FactorioLinkToken *string `json:"factorioLinkToken,omitempty"`
	Description       *string `json:"description,omitempty"`
}

// ListEntryRequest is the request body for adding a whitelist or banlist entry
type ListEntryRequest struct {
	Name string `json:"name"`
}

// CommandRequest is the request body for broadcasting a command
type CommandRequest struct {
	Command string `json:"command"`
}
