package usecase

import "sync"

// AccountLocks serializes every ledger mutation for one account across
// trades, transfers and settlement. Different accounts proceed in
// parallel.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the account's mutex, creating it on first use. The
// returned function releases it.
func (l *AccountLocks) Lock(accountID string) func() {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
