package user

import (
	"context"
	"sync"
)

// RepositoryMock keeps the table in memory and counts saves.
type RepositoryMock struct {
	mutex sync.Mutex
	tbl   *Table
	saves int
}

// NewRepositoryMock returns a Repository serving copies of tbl.
func NewRepositoryMock(tbl *Table) *RepositoryMock {
	return &RepositoryMock{tbl: tbl.clone()}
}

func (repo *RepositoryMock) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	return repo.tbl.clone(), nil
}

func (repo *RepositoryMock) Save(ctx context.Context, tbl *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.tbl = tbl.clone()
	repo.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (repo *RepositoryMock) Saves() int {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	return repo.saves
}

func (t *Table) clone() *Table {
	c := &Table{
		Columns: append([]string(nil), t.Columns...),
		Users:   make([]User, len(t.Users)),
	}
	for i, usr := range t.Users {
		if usr.Extra != nil {
			extra := make(map[string]string, len(usr.Extra))
			for k, v := range usr.Extra {
				extra[k] = v
			}
			usr.Extra = extra
		}
		c.Users[i] = usr
	}
	return c
}
