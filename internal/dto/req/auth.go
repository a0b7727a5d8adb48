package req

import "encoding/json"

type RegisterReq struct {
	Username    string `json:"username" binding:"required,min=4,max=20,alphanum"`
	Password    string `json:"password" binding:"required,min=8,max=72,strongpw"`
	Name        string `json:"name" binding:"required,min=2,max=10"`
	SSN         string `json:"ssn" binding:"required,ssn"`
	PhoneNumber string `json:"phoneNumber" binding:"required,phone"`
	Address     string `json:"address" binding:"required,min=10,max=100"`
}

// UnmarshalJSON also accepts "account" as the username field.
func (r *RegisterReq) UnmarshalJSON(b []byte) error {
	type plain RegisterReq
	aux := struct {
		*plain
		Account string `json:"account"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if r.Username == "" {
		r.Username = aux.Account
	}
	return nil
}

type LoginReq struct {
	Username string `json:"username" binding:"required,min=4,max=20"`
	Password string `json:"password" binding:"required"`
}

type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}
