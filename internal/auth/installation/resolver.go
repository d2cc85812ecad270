// Package installation maps App credentials to installation-scoped access
// tokens: it resolves which installation belongs to the target organization
// and keeps a fresh short-lived token for it.
package installation

import (
	"context"
	"fmt"
	"strings"

	"repocomply/internal/github"
	dErrors "repocomply/pkg/domain-errors"
)

// API is the slice of the GitHub client the package depends on.
type API interface {
	ListInstallations(ctx context.Context, appJWT string) ([]github.Installation, error)
	CreateInstallationToken(ctx context.Context, appJWT string, installationID int64) (*github.InstallationToken, error)
}

// Resolve finds the installation id for orgName among the installations
// visible to the App identity. The match is on account login only,
// case-insensitive; the account's target type is deliberately not checked so
// Apps installed on user accounts resolve the same way.
//
// A miss enumerates the installations that were found so an operator can see
// where the App actually is.
func Resolve(ctx context.Context, api API, assertion, orgName string) (int64, error) {
	installations, err := api.ListInstallations(ctx, assertion)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return 0, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid app id or private key")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeAPI, "failed to list app installations")
	}

	for _, inst := range installations {
		if strings.EqualFold(inst.Account.Login, orgName) {
			return inst.ID, nil
		}
	}

	found := make([]string, 0, len(installations))
	for _, inst := range installations {
		if inst.Account.Login != "" {
			found = append(found, inst.Account.Login)
		}
	}
	msg := fmt.Sprintf("app is not installed on %q; no installations found", orgName)
	if len(found) > 0 {
		msg = fmt.Sprintf("app is not installed on %q; found installations for: %s", orgName, strings.Join(found, ", "))
	}
	return 0, dErrors.New(dErrors.CodeNotFound, msg)
}
