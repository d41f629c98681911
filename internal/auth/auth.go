package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Authorizer struct {
	enforcer *casbin.Enforcer
}

// New creates an Authorizer backed by a casbin enforcer built from the
// given model and policy files.
func New(model, policy string) (*Authorizer, error) {
	enforcer, err := casbin.NewEnforcer(model, policy)
	if err != nil {
		return nil, err
	}

	return &Authorizer{
		enforcer: enforcer,
	}, nil
}

// Authorize checks whether the subject may perform the action on the
// object. It returns a PermissionDenied status error when the policy does
// not allow it.
func (a *Authorizer) Authorize(subject, object, action string) error {

	ok, err := a.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}

	if !ok {
		msg := fmt.Sprintf(
			"%s not permitted to %s to %s",
			subject,
			action,
			object,
		)

		st := status.New(codes.PermissionDenied, msg)

		return st.Err()
	}

	return nil
}
