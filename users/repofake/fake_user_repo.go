package fakeuserrepo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jrsteele09/go-nagbot/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users map[string]users.Profile
	lock  sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users: make(map[string]users.Profile),
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, profile users.Profile) error {
	if profile.Identity == "" {
		return errors.New("identity is required")
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()
	ur.users[profile.Identity] = profile
	return nil
}

func (ur *FakeUserRepo) Get(_ context.Context, identity string) (users.Profile, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	p, ok := ur.users[identity]
	if !ok {
		return users.Profile{}, users.ErrNotFound
	}
	return p, nil
}

func (ur *FakeUserRepo) List(context.Context) ([]users.Profile, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]users.Profile, 0, len(ur.users))
	for _, p := range ur.users {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Identity < list[j].Identity
	})
	return list, nil
}
