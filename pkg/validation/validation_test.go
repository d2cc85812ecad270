package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "repocomply/pkg/domain-errors"
)

type connectRequest struct {
	AppID        string `validate:"notblank,number"`
	Organization string `validate:"notblank"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(connectRequest{AppID: "123", Organization: "acme"}))
}

func TestValidate_FieldMessages(t *testing.T) {
	tests := []struct {
		name string
		req  connectRequest
		msg  string
	}{
		{"blank app id", connectRequest{AppID: "  ", Organization: "acme"}, "app_id must not be blank"},
		{"non-numeric app id", connectRequest{AppID: "abc", Organization: "acme"}, "app_id must be numeric"},
		{"blank org", connectRequest{AppID: "123", Organization: ""}, "organization must not be blank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}
