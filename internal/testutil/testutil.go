package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/blogit/internal/auth"
	"github.com/hugh/blogit/internal/database"
	"github.com/hugh/blogit/internal/database/models"
	"github.com/hugh/blogit/pkg/crypto"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the password every factory user is created with.
const TestPassword = "password123"

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Every pooled connection to ":memory:" is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateTestEncryptor returns an encryptor with a throwaway identity.
func CreateTestEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()

	enc, err := crypto.NewEncryptor("")
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}
	return enc
}

// CreateTestOrg creates a test organization
func CreateTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Name: "Test Organization " + uuid.New().String()[:8],
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateTestUser creates a user in org and returns it with its plaintext
// authentication token.
func CreateTestUser(t *testing.T, db *gorm.DB, enc *crypto.Encryptor, org *models.Organization) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	token, err := crypto.NewToken()
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	sealed, err := enc.Seal(token)
	if err != nil {
		t.Fatalf("failed to seal token: %v", err)
	}

	user := &models.User{
		Name:           "Test User",
		Email:          "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash:   hash,
		OrganizationID: org.ID,
		TokenDigest:    crypto.Digest(token),
		TokenSealed:    sealed,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	user.Organization = org
	return user, token
}

// CreateTestCategory creates a category with the given name
func CreateTestCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// PostOption tweaks a post before it is inserted.
type PostOption func(*models.Post)

func WithStatus(status models.PostStatus) PostOption {
	return func(p *models.Post) { p.Status = status }
}

func WithCreatedAt(at time.Time) PostOption {
	return func(p *models.Post) { p.CreatedAt = at }
}

func WithCategories(categories ...*models.Category) PostOption {
	return func(p *models.Post) {
		for _, c := range categories {
			p.Categories = append(p.Categories, *c)
		}
	}
}

func WithTally(upvotes, downvotes int) PostOption {
	return func(p *models.Post) {
		p.Upvotes = upvotes
		p.Downvotes = downvotes
	}
}

// CreateTestPost creates a post owned by user and their organization. The
// slug is made unique from the title.
func CreateTestPost(t *testing.T, db *gorm.DB, user *models.User, title string, opts ...PostOption) *models.Post {
	t.Helper()

	orgID := user.OrganizationID
	post := &models.Post{
		Title:          title,
		Description:    "Description of " + title,
		Slug:           "post-" + uuid.New().String(),
		Status:         models.PostStatusDraft,
		IsBloggable:    true,
		UserID:         &user.ID,
		OrganizationID: &orgID,
	}
	for _, opt := range opts {
		opt(post)
	}

	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}

	return post
}

// BeforeNextCreate runs fn once, on the same connection, just before the
// next insert into table. It lets tests land a conflicting row between a
// service's uniqueness check and its insert.
func BeforeNextCreate(t *testing.T, db *gorm.DB, table string, fn func(tx *gorm.DB)) {
	t.Helper()

	name := "testutil:before_next_create:" + table
	fired := false
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if fired || tx.Statement.Schema == nil || tx.Statement.Schema.Table != table {
			return
		}
		fired = true
		fn(tx.Session(&gorm.Session{NewDB: true}))
	})
	if err != nil {
		t.Fatalf("failed to register create callback: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Callback().Create().Remove(name)
	})
}

// CreateTestVote inserts a vote row directly, without touching counters
func CreateTestVote(t *testing.T, db *gorm.DB, user *models.User, post *models.Post, voteType models.VoteType) *models.Vote {
	t.Helper()

	vote := &models.Vote{
		UserID:   user.ID,
		PostID:   post.ID,
		VoteType: voteType,
	}
	if err := db.Create(vote).Error; err != nil {
		t.Fatalf("failed to create test vote: %v", err)
	}
	return vote
}

// ReloadPost re-reads a post from the database
func ReloadPost(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Post {
	t.Helper()

	var post models.Post
	if err := db.First(&post, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	return &post
}

// JSONRequest creates an HTTP request with a JSON body
func JSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AuthenticatedRequest creates an HTTP request carrying the auth headers
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, email, token string) *http.Request {
	t.Helper()

	req := JSONRequest(t, method, path, body)
	if email != "" {
		req.Header.Set("X-Auth-Email", email)
	}
	if token != "" {
		req.Header.Set("X-Auth-Token", token)
	}
	return req
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB        *gorm.DB
	Encryptor *crypto.Encryptor
	Logger    *slog.Logger
	Org       *models.Organization
	User      *models.User
	Token     string
}

// NewTestContext creates a complete test setup with DB, org, user, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	enc := CreateTestEncryptor(t)
	org := CreateTestOrg(t, db)
	user, token := CreateTestUser(t, db, enc, org)

	return &TestSetup{
		DB:        db,
		Encryptor: enc,
		Logger:    DiscardLogger(),
		Org:       org,
		User:      user,
		Token:     token,
	}
}

// Actor returns the setup user as an auth.Actor
func (ts *TestSetup) Actor() auth.Actor {
	return auth.ActorFromUser(ts.User)
}

// Request builds a request authenticated as the setup user
func (ts *TestSetup) Request(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, ts.User.Email, ts.Token)
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
