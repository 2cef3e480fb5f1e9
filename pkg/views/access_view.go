package views

type GrantAccessRequest struct {
	Email string `json:"email" validate:"required,email"`
	Pin   string `json:"pin" validate:"required"`
}

type RevokeAccessRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Pin    string `json:"pin" validate:"required"`
}

type GranteeView struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Owner    bool   `json:"owner"`
}

type AccessListView struct {
	OwnerUserID int64         `json:"ownerUserId"`
	Users       []GranteeView `json:"users"`
}
