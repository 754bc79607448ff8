package dto

// RegisterDTO carries the multipart register form. AvatarPath and CoverPath
// are local staging paths produced by the upload middleware, not client
// input; the avatar is mandatory.
type RegisterDTO struct {
	FullName string `form:"fullName" validate:"required,min=1,max=100"`
	Email    string `form:"email"    validate:"required,email"`
	Handle   string `form:"handle"   validate:"required,alphanum,min=3,max=20"`
	Password string `form:"password" validate:"required,min=8"`

	AvatarPath string `validate:"required"`
	CoverPath  string
}

// LoginDTO accepts a handle or an email as identifier.
type LoginDTO struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// UpdateDetailsDTO: at least one field must be set; enforced in the service.
type UpdateDetailsDTO struct {
	FullName string `json:"fullName" validate:"omitempty,min=1,max=100"`
	Email    string `json:"email"    validate:"omitempty,email"`
}

// Envelope is the uniform response body: {status, data, message} on success
// and failure alike.
type Envelope struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}
