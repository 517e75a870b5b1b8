package users

import "context"

// Repo is the user directory the scheduler walks on every tick
type Repo interface {
	Upsert(ctx context.Context, profile Profile) error
	Get(ctx context.Context, identity string) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
}
