package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"backoffice/internal/audit"
	"backoffice/internal/auth"
	"backoffice/internal/catalog"
	"backoffice/internal/chat"
	"backoffice/internal/commands"
	"backoffice/internal/config"
	"backoffice/internal/directory"
	"backoffice/internal/inventory"
	"backoffice/internal/sales"
	"backoffice/internal/server"
	"backoffice/internal/session"
	"backoffice/internal/storage"
)

// bootstrapFlags carries the offline -add-admin command line.
type bootstrapFlags struct {
	addAdmin string
	password string
	branch   string
}

func run(ctx context.Context, boot bootstrapFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if boot.addAdmin != "" {
		return commands.AddAdmin(boot.addAdmin, boot.password, boot.branch, cfg)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.NewBboltStorage(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recorder := audit.New(cfg.AuditLogFile)
	defer recorder.Close()

	authService := auth.NewService(ctx, cfg.LoginAttempts, cfg.LoginBackoff)
	registry := session.NewRegistry()
	engine := chat.NewEngine(registry)
	cat := catalog.New()
	guard := inventory.NewGuard(cat)
	customers := directory.NewCustomers()
	employees := directory.NewEmployees()
	ledger := sales.NewLedger()

	if err := loadState(store, authService, cat, guard, customers, employees, ledger); err != nil {
		return err
	}

	srv := server.New(cfg, server.Deps{
		Sessions:  registry,
		Chat:      engine,
		Inventory: guard,
		Auth:      authService,
		Catalog:   cat,
		Customers: customers,
		Employees: employees,
		Ledger:    ledger,
		Store:     store,
		Audit:     recorder,
	}, logger)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		return nil
	})

	return g.Wait()
}

// loadState restores the persisted state into the in-memory services.
// Sessions and chat state are deliberately not persisted, they reset on
// restart.
func loadState(
	store *storage.BboltStorage,
	authService *auth.Service,
	cat *catalog.Catalog,
	guard *inventory.Guard,
	customers *directory.Customers,
	employees *directory.Employees,
	ledger *sales.Ledger,
) error {
	accounts, err := store.ListAccounts()
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		authService.LoadAccount(acc)
	}

	products, err := store.ListProducts()
	if err != nil {
		return err
	}
	for _, p := range products {
		cat.Load(p)
	}

	stock, err := store.ListStock()
	if err != nil {
		return err
	}
	for branchID, branch := range stock {
		for productID, qty := range branch {
			guard.Load(branchID, productID, qty)
		}
	}

	custs, err := store.ListCustomers()
	if err != nil {
		return err
	}
	for _, c := range custs {
		customers.Load(c)
	}

	emps, err := store.ListEmployees()
	if err != nil {
		return err
	}
	for _, e := range emps {
		employees.Load(e)
	}

	salesList, err := store.ListSales()
	if err != nil {
		return err
	}
	ledger.Load(salesList)

	return nil
}

func main() {
	addAdmin := flag.String("add-admin", "", "Username for a bootstrap admin account (writes to the DB and exits)")
	adminPassword := flag.String("admin-password", "", "Password for the bootstrap admin account")
	adminBranch := flag.String("admin-branch", "B1", "Branch for the bootstrap admin account")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boot := bootstrapFlags{addAdmin: *addAdmin, password: *adminPassword, branch: *adminBranch}
	if err := run(ctx, boot); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Application error: %v", err)
	}
}
