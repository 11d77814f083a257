package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-ide-api/internal/models"
	"github.com/noah-isme/gema-ide-api/internal/repository"
)

const calculatorStarter = "import java.util.Scanner;\n// read a, b and op\n"

const calculatorSolution = `switch (op) {
    case '+': System.out.println(a + b); break;
}`

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Problem{}, &models.TestCase{}, &models.Profile{}, &models.UserRole{}))
	return db
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

// seedCatalogue stores two active problems and one draft.
func seedCatalogue(t *testing.T, db *gorm.DB) (models.Problem, models.Problem) {
	t.Helper()
	ctx := context.Background()
	problems := repository.NewProblemRepository(db)
	cases := repository.NewTestCaseRepository(db)

	calculator := models.Problem{ID: "calc", Title: "Calculator", Description: "Use a switch", Difficulty: models.DifficultyEasy, BoilerplateCode: calculatorStarter, OrderIndex: 0, IsActive: true}
	echo := models.Problem{ID: "echo", Title: "Echo", Description: "Print the input", Difficulty: models.DifficultyMedium, BoilerplateCode: "// echo", OrderIndex: 1, IsActive: true}
	draft := models.Problem{ID: "draft", Title: "Draft", Description: "wip", Difficulty: models.DifficultyHard, OrderIndex: 2}

	for _, problem := range []*models.Problem{&calculator, &echo, &draft} {
		require.NoError(t, problems.Create(ctx, problem))
	}

	for _, tc := range []models.TestCase{
		{ProblemID: "calc", Input: "5\n3\n+", ExpectedOutput: "8", OrderIndex: 0},
		{ProblemID: "calc", Input: "10 0 /", ExpectedOutput: "Error: Division by zero", OrderIndex: 1},
		{ProblemID: "calc", Input: "2 2 +", ExpectedOutput: "5", OrderIndex: 2, IsHidden: true},
		{ProblemID: "echo", Input: "hello", ExpectedOutput: "hello", OrderIndex: 0, IsHidden: true},
	} {
		tc := tc
		require.NoError(t, cases.Create(ctx, &tc))
	}

	return calculator, echo
}

func newProblemServiceForTest(t *testing.T, db *gorm.DB, client *redis.Client) ProblemService {
	t.Helper()
	return NewProblemService(repository.NewProblemRepository(db), repository.NewTestCaseRepository(db), client, time.Minute, testLogger())
}

func newValidator() *validator.Validate {
	return validator.New()
}
