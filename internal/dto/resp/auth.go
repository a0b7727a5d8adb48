package resp

import "time"

type UserInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

type TokenResp struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int64    `json:"expiresIn"` // seconds
	User         UserInfo `json:"user"`
}

type RegisterResp struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProfileResp struct {
	ID                   int64     `json:"id"`
	Account              string    `json:"account"`
	Name                 string    `json:"name"`
	SSN                  string    `json:"ssn"`
	PhoneNumber          string    `json:"phoneNumber"`
	AdministrativeRegion string    `json:"administrativeRegion"`
	IsActive             bool      `json:"isActive"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}
