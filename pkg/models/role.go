package models

type Role string

const (
	AdminRole      Role = "admin"
	RevisorRole    Role = "revisor"
	RedatorRole    Role = "redator"
	EditorRole     Role = "editor"
	ModeratorRole  Role = "moderator"
	TreinadorRole  Role = "treinador"
	ArbitroRole    Role = "arbitro"
	DirigenteRole  Role = "dirigente"
	JornalistaRole Role = "jornalista"
	UserRole       Role = "user"
)

// ParseRole maps a stored role string to a Role. Unknown values map to the
// least-privileged role so a bad row can never escalate.
func ParseRole(s string) Role {
	switch Role(s) {
	case AdminRole, RevisorRole, RedatorRole, EditorRole, ModeratorRole,
		TreinadorRole, ArbitroRole, DirigenteRole, JornalistaRole, UserRole:
		return Role(s)
	default:
		return UserRole
	}
}
