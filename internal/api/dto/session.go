package dto

type LoginRequest struct {
	Login *LoginParams `json:"login"`
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Login == nil {
		errors["login"] = MissingParam("login")
	}
	return errors
}

type SessionResponse struct {
	AuthenticationToken string `json:"authentication_token"`
	ID                  string `json:"id"`
	Name                string `json:"name"`
}
