package auth

import (
	"errors"

	"github.com/mkovacic/portfolio/pkg"
)

// ErrNotConfigured means the admin account is not set up server side. It is
// deliberately distinct from a credentials mismatch: the handler maps it to a
// generic 500 without telling the caller what is missing.
var ErrNotConfigured = errors.New("admin credentials not configured")

type Admin struct {
	Username     string
	PasswordHash string
}

// Verifier checks supplied credentials against the single configured admin
// account. It fails closed: with incomplete configuration nothing can log in.
type Verifier struct {
	admin Admin
}

func NewVerifier(admin Admin) *Verifier {
	return &Verifier{admin: admin}
}

// Verify reports whether the credentials match. The bcrypt comparison runs
// before the username check so both outcomes take the same deliberately slow
// path, and either mismatch yields the same negative result.
func (v *Verifier) Verify(username, password string) (bool, error) {
	if v.admin.Username == "" || v.admin.PasswordHash == "" {
		return false, ErrNotConfigured
	}

	passwordOK := pkg.CheckPasswordHash(password, v.admin.PasswordHash)
	if !passwordOK || username != v.admin.Username {
		return false, nil
	}

	return true, nil
}
