package authflowrepo

import (
	"context"
	"errors"
	"time"
)

var ErrStateNotFound = errors.New("auth flow state not found")

// AuthFlowState is what the sign-in redirect remembers until the provider calls back
type AuthFlowState struct {
	TempKey      string    `json:"tempKey"`
	CodeVerifier string    `json:"codeVerifier"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Repo interface {
	Upsert(ctx context.Context, state string, authState *AuthFlowState) error
	Get(ctx context.Context, state string) (*AuthFlowState, error)
	Delete(ctx context.Context, state string) error
}

// Take returns the state and removes it, so a callback can be redeemed once
func Take(ctx context.Context, repo Repo, state string) (*AuthFlowState, error) {
	authState, err := repo.Get(ctx, state)
	if err != nil {
		return nil, err
	}
	if err := repo.Delete(ctx, state); err != nil {
		return nil, err
	}
	return authState, nil
}
