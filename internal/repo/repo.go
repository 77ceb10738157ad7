package repo

import (
	"github.com/GlebRadaev/creditsettle/internal/outbox"
	"github.com/GlebRadaev/creditsettle/internal/pg"
	accountrepo "github.com/GlebRadaev/creditsettle/internal/repo/account-repo"
	entitlementrepo "github.com/GlebRadaev/creditsettle/internal/repo/entitlement-repo"
	eventrepo "github.com/GlebRadaev/creditsettle/internal/repo/event-repo"
	ledgerrepo "github.com/GlebRadaev/creditsettle/internal/repo/ledger-repo"
	"github.com/GlebRadaev/creditsettle/internal/repo/memory"
	outboxrepo "github.com/GlebRadaev/creditsettle/internal/repo/outbox-repo"
	"github.com/GlebRadaev/creditsettle/internal/service/entitlementservice"
	"github.com/GlebRadaev/creditsettle/internal/service/guardservice"
	"github.com/GlebRadaev/creditsettle/internal/service/ledgerservice"
)

type Repositories struct {
	AccountRepo     ledgerservice.AccountRepo
	EntryRepo       ledgerservice.EntryRepo
	EventRepo       guardservice.Repo
	EntitlementRepo entitlementservice.Repo
	OutboxRepo      outbox.Repo
	TxManager       pg.TXManager
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		AccountRepo:     accountrepo.New(conn),
		EntryRepo:       ledgerrepo.New(conn),
		EventRepo:       eventrepo.New(conn),
		EntitlementRepo: entitlementrepo.New(conn),
		OutboxRepo:      outboxrepo.New(conn),
		TxManager:       txManager,
	}
}

// NewMemory wires every repository to one in-process store.
func NewMemory(store *memory.Store) *Repositories {
	return &Repositories{
		AccountRepo:     store.Accounts(),
		EntryRepo:       store.Entries(),
		EventRepo:       store.Events(),
		EntitlementRepo: store.Entitlements(),
		OutboxRepo:      store.Outbox(),
		TxManager:       memory.NewTXManager(store),
	}
}
