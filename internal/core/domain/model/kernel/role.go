package kernel

import "courierdesk/internal/pkg/errs"

// Role is the capacity in which a user acts on a task. Chat messages carry
// the role of their sender.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCourier  Role = "courier"
)

// ParseRole accepts the wire names "customer" and "courier".
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

func (r Role) Validate() error {
	switch r {
	case RoleCustomer, RoleCourier:
		return nil
	case "":
		return errs.NewValueIsRequiredError("role")
	default:
		return errs.NewValueIsInvalidError("role " + string(r))
	}
}

func (r Role) String() string {
	return string(r)
}
