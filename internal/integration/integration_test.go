package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"riddle-quiz-service/internal/app"
	"riddle-quiz-service/internal/domain"
	pgstore "riddle-quiz-service/internal/infra/postgres"
	pgmigrations "riddle-quiz-service/internal/infra/postgres/migrations"
	infraredis "riddle-quiz-service/internal/infra/redis"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAndSeed(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questions := infraredis.NewQuestionRepository(redisClient, pgstore.NewQuestionLoader(pool), 5*time.Minute)
	players := pgstore.NewPlayerStore(pool)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	clock := &stepClock{now: time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)}
	service := app.NewGameService(sessions, questions, players, domain.DefaultRules(), app.WithClock(clock.Now))

	if _, err := service.Register(ctx, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Register(ctx, "bob"); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("classic win marks completion", func(t *testing.T) {
		snap, err := service.StartClassic(ctx, "alice")
		if err != nil {
			t.Fatalf("start classic: %v", err)
		}
		for snap.Phase == domain.PhaseActive {
			snap, err = service.SubmitAnswer(ctx, "alice", snap.Question.Answer)
			if err != nil {
				t.Fatalf("answer: %v", err)
			}
		}
		if snap.Outcome == nil || snap.Outcome.Result != domain.ResultWin {
			t.Fatalf("expected a classic win, got %+v", snap.Outcome)
		}
		record, err := players.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("get alice: %v", err)
		}
		if record.ClassicCompletion != domain.Completed {
			t.Fatalf("expected completion persisted, got %s", record.ClassicCompletion)
		}
	})

	t.Run("time challenge persists best score", func(t *testing.T) {
		snap, err := service.StartTimeChallenge(ctx, "bob")
		if err != nil {
			t.Fatalf("start time challenge: %v", err)
		}
		for i := 0; i < 3; i++ {
			snap, err = service.SubmitAnswer(ctx, "bob", snap.Question.Answer)
			if err != nil {
				t.Fatalf("answer: %v", err)
			}
		}
		clock.Advance(181 * time.Second)
		snap, err = service.Tick(ctx, "bob")
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		if snap.Outcome == nil || snap.Outcome.Result != domain.ResultTimeUp || *snap.Outcome.FinalScore != 9 {
			t.Fatalf("expected time up with 9 points, got %+v", snap.Outcome)
		}

		board, err := service.Leaderboard(ctx, 0)
		if err != nil {
			t.Fatalf("leaderboard: %v", err)
		}
		if len(board) != 2 || board[0].PlayerID != "bob" || board[0].BestScore != 9 {
			t.Fatalf("expected bob leading with 9, got %+v", board)
		}

		last, err := sessions.Last(ctx, "bob")
		if err != nil {
			t.Fatalf("last snapshot: %v", err)
		}
		if last.Phase != domain.PhaseEnded {
			t.Fatalf("expected ended snapshot in redis, got %s", last.Phase)
		}
	})
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "riddle", "POSTGRES_PASSWORD": "riddlepass", "POSTGRES_DB": "riddledb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://riddle:riddlepass@%s:%s/riddledb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// migrateAndSeed creates the schema and loads the embedded riddle bank.
func migrateAndSeed(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM riddles`).Scan(&count); err != nil {
		t.Fatalf("count riddles: %v", err)
	}
	if count != 62 {
		t.Fatalf("expected 62 seeded riddles, got %d", count)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
