// Package accounts implements the identity directory and the account
// lifecycle: registration, authentication, status transitions, and
// password reset.
package accounts

// Account statuses and roles are closed enumerations; anything else is
// rejected before it reaches the directory.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	RoleStandard      = "standard"
	RoleAdministrator = "administrator"
)

// Account is a single directory record. Email is stored only encrypted;
// EmailHash is the one-way fingerprint used for equality lookup.
type Account struct {
	Username       string `dynamodbav:"username"`
	EncryptedEmail string `dynamodbav:"email"`
	EmailHash      string `dynamodbav:"email_hash"`
	PasswordHash   string `dynamodbav:"password"`
	Status         string `dynamodbav:"status"`
	Role           string `dynamodbav:"role"`
}

// Listing is the projection exposed by List: never the password hash,
// never the email in any form.
type Listing struct {
	Username string `json:"username"`
	Status   string `json:"status"`
	Role     string `json:"role"`
}

func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusInactive
}
