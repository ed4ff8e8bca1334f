package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// sqlStore implements Store over a sqlx connection pool.
type sqlStore struct {
	db    *sqlx.DB
	repos Repos
}

// NewStore builds the repository bundle over the given database.
func NewStore(db *sqlx.DB) Store {
	return &sqlStore{
		db:    db,
		repos: newRepos(db),
	}
}

// newRepos binds all repositories to an executor, either the pool or an open
// transaction.
func newRepos(ext sqlx.ExtContext) Repos {
	return Repos{
		Loans:         &loanRepository{db: ext},
		Deposits:      &depositRepository{db: ext},
		Transactions:  &transactionRepository{db: ext},
		Guarantors:    &guarantorRepository{db: ext},
		Votes:         &voteRepository{db: ext},
		Fines:         &fineRepository{db: ext},
		Dividends:     &dividendRepository{db: ext},
		Members:       &memberRepository{db: ext},
		Notifications: &notificationRepository{db: ext},
		Settings:      &settingsRepository{db: ext},
	}
}

func (s *sqlStore) Repos() Repos {
	return s.repos
}

func (s *sqlStore) Atomic(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	return tx.Commit()
}
