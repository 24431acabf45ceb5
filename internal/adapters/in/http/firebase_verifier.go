package http

import (
	"context"
	"fmt"

	"courierdesk/internal/core/domain/model/kernel"

	"firebase.google.com/go/v4/auth"
)

// FirebaseVerifier checks Firebase ID tokens, the credentials the mobile
// clients already hold.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (Principal, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	uid, err := kernel.NewUserID(token.UID)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	email, _ := token.Claims["email"].(string)
	return Principal{UID: uid, Email: email}, nil
}
