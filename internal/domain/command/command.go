package command

// RegisterUser requests the creation of a new user aggregate.
type RegisterUser struct {
	Username string
	Password string
	Email    string
}

// ChangePassword requests a password change on an existing aggregate.
type ChangePassword struct {
	AggregateID string
	OldPassword string
	NewPassword string
}

// VerifyEmail requests verification of the pending email address.
type VerifyEmail struct {
	AggregateID   string
	SecurityToken string
}
