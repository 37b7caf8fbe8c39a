package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gharkharcha/internal/category"
	"gharkharcha/internal/changefeed"
	"gharkharcha/internal/handlers"
	"gharkharcha/internal/logger"
	"gharkharcha/internal/middleware"
	"gharkharcha/internal/models"
	"gharkharcha/internal/services"
	"gharkharcha/internal/session"
	"gharkharcha/internal/store/gormstore"
	"gharkharcha/internal/testutil"
	"gharkharcha/internal/uuid"
	"gharkharcha/internal/validator"
)

const (
	testAPIKey = "integration-key"
	testSecret = "integration-secret"
	settle     = 2 * time.Second
	tick       = 10 * time.Millisecond
)

// testApp holds one daemon's stack: store, session, manager and router.
type testApp struct {
	DB      *gorm.DB
	Manager *services.Manager
	Router  *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "error")
	validator.Register()
}

// setupApp creates a daemon backed by an isolated in-memory SQLite database.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return newApp(t, db, changefeed.NewBroker(uuid.New()))
}

// newApp builds a daemon over db. Daemons sharing a broker see each other's
// writes as they would through the AMQP bridge.
func newApp(t *testing.T, db *gorm.DB, broker *changefeed.Broker) *testApp {
	t.Helper()

	st := gormstore.New(db, broker, logger.Named("store"))
	tokens := session.NewTokenProvider(testSecret)
	manager := services.NewManager(st, services.WithLogger(logger.Named("manager")))
	manager.Attach(tokens)
	t.Cleanup(func() {
		manager.Close()
		st.Close()
	})

	categories := category.NewTable()
	sessionHandler := handlers.NewSessionHandler(tokens, manager)
	expenseHandler := handlers.NewExpenseHandler(manager, manager)
	familyMemberHandler := handlers.NewFamilyMemberHandler(manager, manager)
	budgetHandler := handlers.NewBudgetHandler(manager, manager)
	reportHandler := handlers.NewReportHandler(manager, manager, categories)
	categoryHandler := handlers.NewCategoryHandler(categories)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")
	v1.Use(middleware.APIKeyAuth(testAPIKey))

	v1.POST("/session", sessionHandler.SignIn)
	v1.GET("/session", sessionHandler.GetSession)
	v1.DELETE("/session", sessionHandler.SignOut)

	expenses := v1.Group("/expenses")
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.PATCH("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	members := v1.Group("/family-members")
	members.GET("", familyMemberHandler.GetFamilyMembers)
	members.POST("", familyMemberHandler.CreateFamilyMember)
	members.PATCH("/:id", familyMemberHandler.UpdateFamilyMember)
	members.DELETE("/:id", familyMemberHandler.DeleteFamilyMember)

	budgets := v1.Group("/budgets")
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.PATCH("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	reports := v1.Group("/reports")
	reports.GET("/summary", reportHandler.GetSummary)
	reports.GET("/dashboard", reportHandler.GetDashboard)
	reports.GET("/trend", reportHandler.GetTrend)
	reports.GET("/export", reportHandler.ExportExpenses)

	v1.GET("/categories", categoryHandler.GetCategories)

	return &testApp{DB: db, Manager: manager, Router: router}
}

// request sends an API request carrying the test API key.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// signIn signs uid in and waits for the first snapshots.
func (app *testApp) signIn(t *testing.T, uid string) {
	t.Helper()
	token, err := session.IssueToken(testSecret, models.Identity{UID: uid, DisplayName: uid}, time.Hour)
	require.NoError(t, err)

	rec := app.request("POST", "/api/v1/session", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	app.waitLoaded(t)
}

func (app *testApp) waitLoaded(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return !app.Manager.Loading() }, settle, tick, "snapshots never loaded")
}

// create posts body and returns the new id.
func (app *testApp) create(t *testing.T, path, body string) string {
	t.Helper()
	rec := app.request("POST", path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := parseJSON(t, rec)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// listLen returns the length of the named array in a GET response.
func (app *testApp) listLen(t *testing.T, path, key string) int {
	t.Helper()
	rec := app.request("GET", path, "")
	if rec.Code != http.StatusOK {
		return -1
	}
	items, _ := parseJSON(t, rec)[key].([]interface{})
	return len(items)
}

// waitLen waits until the named array in path's response has n items.
func (app *testApp) waitLen(t *testing.T, path, key string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return app.listLen(t, path, key) == n }, settle, tick,
		"%s never reached %d %s", path, n, key)
}

func doWithoutKey(app *testApp, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}
