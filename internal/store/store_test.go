package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"dindin/internal/database"
)

var testStore *Store

func mustStartPostgresContainer() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbContainer, err := postgres.Run(
		ctx,
		"postgres:latest",
		postgres.WithDatabase("dindin_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dsn, err := dbContainer.ConnectionString(context.Background(), "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return dbContainer.Terminate, err
	}
	defer sqlDB.Close()
	if err := database.RunMigrations(sqlDB, "../../migrations"); err != nil {
		return dbContainer.Terminate, err
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return dbContainer.Terminate, err
	}
	testStore = New(pool, zap.NewNop())

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_INTEGRATION") != "" {
		os.Exit(0)
	}
	if os.Getenv("CI") == "" && !isDockerAvailable() {
		os.Exit(0)
	}

	teardown, err := mustStartPostgresContainer()
	if err != nil {
		os.Exit(0)
	}

	code := m.Run()

	if teardown != nil {
		teardown(context.Background())
	}
	os.Exit(code)
}

func isDockerAvailable() (available bool) {
	// testcontainers panics instead of returning an error when no Docker
	// daemon can be located; treat that the same as "not available".
	defer func() {
		if recover() != nil {
			available = false
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.DaemonHost(ctx)
	return err == nil
}

var userSeq int

func mustCreateUser(t *testing.T, balance float64) *User {
	t.Helper()
	userSeq++
	email := fmt.Sprintf("user%d-%s@test.local", userSeq, uuid.New().String()[:8])

	u, err := testStore.CreateUser(context.Background(), email, "Test User", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if balance > 0 {
		if _, _, err := testStore.Deposit(context.Background(), u.ID, balance, nil); err != nil {
			t.Fatalf("Deposit: %v", err)
		}
		u.Balance = balance
	}
	return u
}

func mustCreateRound(t *testing.T) *Round {
	t.Helper()
	now := time.Now()
	r := &Round{
		ID:        uuid.New().String(),
		StartTime: now,
		EndTime:   now.Add(40 * time.Second),
		Status:    RoundBetting,
	}
	if err := testStore.CreateRound(context.Background(), r); err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	return r
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 0)

	if _, err := testStore.CreateUser(ctx, u.Email, "Other", "hash"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	got, err := testStore.GetUserByEmail(ctx, u.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got user %s, want %s", got.ID, u.ID)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 0)

	_, balance, err := testStore.Deposit(ctx, u.ID, 100, nil)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if balance != 100 {
		t.Errorf("balance after deposit = %v, want 100", balance)
	}

	tx, balance, err := testStore.Withdraw(ctx, u.ID, 40, nil)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if balance != 60 {
		t.Errorf("balance after withdraw = %v, want 60", balance)
	}
	if tx.Status != TxPending {
		t.Errorf("withdrawal status = %s, want PENDING", tx.Status)
	}
	if tx.Amount != -40 {
		t.Errorf("withdrawal amount = %v, want -40", tx.Amount)
	}

	got, err := testStore.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.ID != tx.ID || got.UserID != u.ID || got.Status != TxPending {
		t.Errorf("GetTransaction = %+v, want the pending withdrawal back", got)
	}

	if _, err := testStore.GetTransaction(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for unknown id", err)
	}

	if _, _, err := testStore.Withdraw(ctx, u.ID, 1000, nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestUpdateTransactionStatus_RejectRefunds(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 100)

	tx, _, err := testStore.Withdraw(ctx, u.ID, 30, nil)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	updated, err := testStore.UpdateTransactionStatus(ctx, tx.ID, TxRejected)
	if err != nil {
		t.Fatalf("UpdateTransactionStatus: %v", err)
	}
	if updated.Status != TxRejected {
		t.Errorf("status = %s, want REJECTED", updated.Status)
	}

	balance, err := testStore.GetBalance(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 100 {
		t.Errorf("balance after rejection = %v, want the held 30 back (100)", balance)
	}

	// A settled transaction cannot change again.
	if _, err := testStore.UpdateTransactionStatus(ctx, tx.ID, TxCompleted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for non-pending transaction", err)
	}
}

func TestInsertBetAndDebit(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 50)
	r := mustCreateRound(t)

	bet, balance, err := testStore.InsertBetAndDebit(ctx, u.ID, r.ID, 20, BetAbove)
	if err != nil {
		t.Fatalf("InsertBetAndDebit: %v", err)
	}
	if balance != 30 {
		t.Errorf("balance = %v, want 30", balance)
	}
	if bet.Status != BetPending {
		t.Errorf("bet status = %s, want PENDING", bet.Status)
	}

	// Second bet on the same round trips the unique constraint.
	if _, _, err := testStore.InsertBetAndDebit(ctx, u.ID, r.ID, 10, BetBelow); !errors.Is(err, ErrDuplicateBet) {
		t.Fatalf("err = %v, want ErrDuplicateBet", err)
	}

	// The failed attempt must not have debited anything.
	got, err := testStore.GetBalance(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if got != 30 {
		t.Errorf("balance after failed bet = %v, want 30", got)
	}

	// A stake bigger than the remaining balance is refused atomically.
	r2 := mustCreateRound(t)
	if _, _, err := testStore.InsertBetAndDebit(ctx, u.ID, r2.ID, 500, BetAbove); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestSettleBet(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 100)
	r := mustCreateRound(t)

	bet, _, err := testStore.InsertBetAndDebit(ctx, u.ID, r.ID, 20, BetAbove)
	if err != nil {
		t.Fatalf("InsertBetAndDebit: %v", err)
	}

	balance, err := testStore.SettleBet(ctx, bet.ID, 30.0, 36.0)
	if err != nil {
		t.Fatalf("SettleBet: %v", err)
	}
	if balance != 116 {
		t.Errorf("balance = %v, want 116 (80 + 36)", balance)
	}

	// Settling twice must fail: the bet is no longer PENDING.
	if _, err := testStore.SettleBet(ctx, bet.ID, 30.0, 36.0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second settle err = %v, want ErrNotFound", err)
	}

	pending, err := testStore.PendingBetsForRound(ctx, r.ID)
	if err != nil {
		t.Fatalf("PendingBetsForRound: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending bets = %d, want 0", len(pending))
	}
}

func TestDailyBetTotal(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 200)

	for i := 0; i < 3; i++ {
		r := mustCreateRound(t)
		if _, _, err := testStore.InsertBetAndDebit(ctx, u.ID, r.ID, 25, BetBelow); err != nil {
			t.Fatalf("InsertBetAndDebit: %v", err)
		}
	}

	total, err := testStore.DailyBetTotal(ctx, u.ID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DailyBetTotal: %v", err)
	}
	if total != 75 {
		t.Errorf("total = %v, want 75", total)
	}

	total, err = testStore.DailyBetTotal(ctx, u.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DailyBetTotal: %v", err)
	}
	if total != 0 {
		t.Errorf("total since the future = %v, want 0", total)
	}
}

func TestDailyBetLimit_Override(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 0)

	limit, err := testStore.DailyBetLimit(ctx, u.ID, 5000)
	if err != nil {
		t.Fatalf("DailyBetLimit: %v", err)
	}
	if limit != 5000 {
		t.Errorf("default limit = %v, want 5000", limit)
	}

	if err := testStore.SetDailyBetLimit(ctx, u.ID, 250); err != nil {
		t.Fatalf("SetDailyBetLimit: %v", err)
	}
	limit, err = testStore.DailyBetLimit(ctx, u.ID, 5000)
	if err != nil {
		t.Fatalf("DailyBetLimit: %v", err)
	}
	if limit != 250 {
		t.Errorf("override limit = %v, want 250", limit)
	}
}

func TestLoyalty(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 0)

	points, level, err := testStore.AddLoyaltyPoints(ctx, u.ID, 600)
	if err != nil {
		t.Fatalf("AddLoyaltyPoints: %v", err)
	}
	if points != 600 {
		t.Errorf("points = %d, want 600", points)
	}
	if level != 2 {
		t.Errorf("level = %d, want 2 (Prata starts at 500)", level)
	}

	reward, err := testStore.GetReward(ctx, "bonus-5")
	if err != nil {
		t.Fatalf("GetReward: %v", err)
	}

	balance, points, err := testStore.RedeemReward(ctx, u.ID, reward)
	if err != nil {
		t.Fatalf("RedeemReward: %v", err)
	}
	if balance != reward.BalanceBonus {
		t.Errorf("balance = %v, want %v", balance, reward.BalanceBonus)
	}
	if points != 600-reward.CostPoints {
		t.Errorf("points = %d, want %d", points, 600-reward.CostPoints)
	}

	// Not enough points for the expensive reward.
	expensive, err := testStore.GetReward(ctx, "bonus-500")
	if err != nil {
		t.Fatalf("GetReward: %v", err)
	}
	if _, _, err := testStore.RedeemReward(ctx, u.ID, expensive); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}
}

func TestChatCloseAndReopen(t *testing.T) {
	ctx := context.Background()
	u := mustCreateUser(t, 0)

	if _, err := testStore.InsertChatMessage(ctx, u.ID, &u.ID, SenderUser, "preciso de ajuda", nil, false); err != nil {
		t.Fatalf("InsertChatMessage: %v", err)
	}

	closed, _, err := testStore.IsChatClosed(ctx, u.ID)
	if err != nil {
		t.Fatalf("IsChatClosed: %v", err)
	}
	if closed {
		t.Fatal("fresh conversation reported closed")
	}

	if _, err := testStore.InsertChatMessage(ctx, u.ID, nil, SenderSystem, "Atendimento encerrado", nil, true); err != nil {
		t.Fatalf("InsertChatMessage (close): %v", err)
	}
	closed, final, err := testStore.IsChatClosed(ctx, u.ID)
	if err != nil {
		t.Fatalf("IsChatClosed: %v", err)
	}
	if !closed || final == nil {
		t.Fatal("conversation should be closed by the final message")
	}

	// A new user message reopens the thread.
	if _, err := testStore.InsertChatMessage(ctx, u.ID, &u.ID, SenderUser, "ainda preciso de ajuda", nil, false); err != nil {
		t.Fatalf("InsertChatMessage (reopen): %v", err)
	}
	closed, _, err = testStore.IsChatClosed(ctx, u.ID)
	if err != nil {
		t.Fatalf("IsChatClosed: %v", err)
	}
	if closed {
		t.Fatal("new message should reopen the conversation")
	}

	msgs, err := testStore.ListChatMessages(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("ListChatMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Errorf("messages = %d, want 3", len(msgs))
	}
}

func TestCurrentRound(t *testing.T) {
	ctx := context.Background()
	r := mustCreateRound(t)

	current, err := testStore.CurrentRound(ctx)
	if err != nil {
		t.Fatalf("CurrentRound: %v", err)
	}
	if current.ID != r.ID {
		t.Errorf("current round = %s, want the newest unexpired %s", current.ID, r.ID)
	}

	if err := testStore.FinishRound(ctx, r.ID, 42.5); err != nil {
		t.Fatalf("FinishRound: %v", err)
	}
	got, err := testStore.GetRound(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRound: %v", err)
	}
	if got.Status != RoundFinished || got.Result == nil || *got.Result != 42.5 {
		t.Errorf("finished round = %+v", got)
	}
}
