package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/database"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/models"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/configs"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// main seeds demo users with standard and time-deposit accounts.
// Every user gets the password "password123" and every account the PIN "1234".
// All inserts run inside a single transaction.
func main() {
	noOfUsers := flag.Int("noOfUsers", 20, "Number of users to seed")
	maxAccountsPerUser := flag.Int("maxAccounts", 2, "Max accounts per user")
	minAccountBalance := flag.Float64("minBalance", 100.0, "Min account balance")
	maxAccountBalance := flag.Float64("maxBalance", 1000.0, "Max account balance")
	timeDepositRate := flag.Float64("timeDepositRate", 0.25, "Share of accounts opened as time deposits")
	tenure := flag.Duration("tenure", 10*time.Minute, "Time-deposit tenure")

	flag.Parse()

	pkg.InitLogger()
	logger := pkg.Logger
	defer func() { _ = logger.Sync() }()

	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed_to_load_config", zap.Error(err))
	}

	ctx := context.Background()
	db, closer, err := database.New(ctx, logger, database.Config{
		PrimaryDSN: cfg.PrimaryDbAddr,
		MaxConns:   cfg.MaxDbCons,
		MinConns:   cfg.MinDbCons,
	})
	if err != nil {
		logger.Fatal("failed_to_init_DB", zap.Error(err))
	}
	defer closer()

	if err = database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		logger.Fatal("failed_to_run_database_migrations", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository()
	accountRepo := repositories.NewAccountRepository()

	minBal, maxBal := *minAccountBalance, *maxAccountBalance
	if minBal > maxBal {
		minBal, maxBal = maxBal, minBal
	}

	// Hash once; bcrypt dominates seeding time otherwise.
	passwordHash, err := utils.HashSecret("password123", cfg.PinHashCost)
	if err != nil {
		logger.Fatal("failed_to_hash_password", zap.Error(err))
	}
	pinHash, err := utils.HashSecret("1234", cfg.PinHashCost)
	if err != nil {
		logger.Fatal("failed_to_hash_pin", zap.Error(err))
	}

	runID := time.Now().Unix()
	accountsSeeded := 0
	err = db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for i := 1; i <= *noOfUsers; i++ {
			user, err := userRepo.Create(ctx, tx, models.User{
				Username:     fmt.Sprintf("user_%d", i),
				Email:        fmt.Sprintf("user_%d_%d@example.com", runID, i),
				PasswordHash: passwordHash,
			})
			if err != nil {
				return err
			}
			logger.Info("creating_user", zap.Int("i", i), zap.Int64("user_id", user.ID), zap.String("email", user.Email))

			noOfAccounts := rand.Intn(*maxAccountsPerUser) + 1
			for j := 0; j < noOfAccounts; j++ {
				bal := minBal + rand.Float64()*(maxBal-minBal)
				account := models.Account{
					Kind:        pkg.AccountStandard,
					OwnerUserID: user.ID,
					Balance:     decimal.NewFromFloat(bal).Round(2),
					PinHash:     pinHash,
				}
				if rand.Float64() < *timeDepositRate {
					maturesAt := time.Now().Add(*tenure)
					account.Kind = pkg.AccountTimeDeposit
					account.MaturesAt = &maturesAt
				}
				account, err = accountRepo.Create(ctx, tx, account)
				if err != nil {
					return err
				}
				accountsSeeded++
				logger.Info("creating_account",
					zap.Int64("user_id", user.ID),
					zap.Int64(pkg.AccountId, account.ID),
					zap.String("kind", string(account.Kind)),
					zap.String("balance", account.Balance.String()))
			}
		}
		return nil
	})
	if err != nil {
		logger.Fatal("failed_to_seed_data", zap.Error(err))
	}
	// Time deposits are picked up by the API's start-up restore.
	logger.Info("data_seeded_successfully", zap.Int("users", *noOfUsers), zap.Int("accounts", accountsSeeded))
}
