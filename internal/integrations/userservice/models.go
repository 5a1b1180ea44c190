package userservice

const (
	RoleMember     = "member"
	RoleInstructor = "instructor"
)

// Profile профиль пользователя из UserService
type Profile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"` // member или instructor
}

// IsInstructor проверяет, что профиль принадлежит инструктору
func (p *Profile) IsInstructor() bool {
	return p.Role == RoleInstructor
}

// ErrorResponse модель ошибки от UserService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
