package domain

// Credentials is sent with group "reg" on registration (email, password) and
// with group "auth" on login (username, password).
type Credentials struct {
	Email    string `json:"email,omitempty" groups:"reg"`
	Username string `json:"username,omitempty" groups:"auth"`
	Password string `json:"password" groups:"reg,auth"`
}

func NewCredentials(email, password string) Credentials {
	return Credentials{Email: email, Username: email, Password: password}
}

// AuthData is issued on login, registration and refresh.
type AuthData struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	Roles        []string `json:"roles,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
