package dto

type SignupRequest struct {
	User *SignupParams `json:"user"`
}

type SignupParams struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Organization         string `json:"organization"`
}

func (r SignupRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.User == nil {
		errors["user"] = MissingParam("user")
	}
	return errors
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
