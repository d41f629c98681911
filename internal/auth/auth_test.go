package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAuthorizer(t *testing.T) {
	authorizer, err := New(
		filepath.Join("testdata", "model.conf"),
		filepath.Join("testdata", "policy.csv"),
	)
	require.NoError(t, err)

	for _, action := range []string{"produce", "consume"} {
		err = authorizer.Authorize("root", "*", action)
		require.NoError(t, err)

		err = authorizer.Authorize("nobody", "*", action)
		require.Error(t, err)
		require.Equal(t, codes.PermissionDenied, status.Code(err))
	}
}
