package service

import (
	"context"

	"wabridge/internal/errors"
	"wabridge/internal/models"
	"wabridge/internal/retry"
	"wabridge/pkg/whatsapp"
	"wabridge/pkg/whatsapp/types"
)

// ResolveIdentity fetches the bridge's own account identity from the
// platform with a phone-number self-fetch. Transient Graph API failures
// are retried with backoff; the bridge cannot handshake without an
// identity, so a final failure is fatal to the connection attempt.
func ResolveIdentity(ctx context.Context, client whatsapp.Client) (*models.User, error) {
	var phone *types.PhoneNumber

	backoff := retry.NewBackoff(retry.DefaultBackoffConfig())
	err := backoff.Retry(ctx, func(ctx context.Context) error {
		var fetchErr error
		phone, fetchErr = client.GetPhoneNumber(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, errors.NewIdentityError(err)
	}

	return &models.User{
		ID:        phone.ID,
		FirstName: phone.VerifiedName,
		Username:  phone.ID,
		IsBot:     true,
	}, nil
}
