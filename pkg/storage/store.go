package storage

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fumiya-kume/cra/pkg/config"
	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/logger"
)

// Sentinels wrapped by the typed errors returned from Store
var (
	ErrNotFound  = stderrors.New("record not found")
	ErrDuplicate = stderrors.New("duplicate record")
)

// Store is the persistence interface used by the review service and the API
type Store interface {
	CreateRepository(ctx context.Context, repo *Repository) error
	// ListRepositories returns active repositories ordered by id
	ListRepositories(ctx context.Context) ([]Repository, error)
	GetRepository(ctx context.Context, id uint) (*Repository, error)
	GetRepositoryByFullName(ctx context.Context, fullName string) (*Repository, error)
	RecordRepositoryReview(ctx context.Context, id uint, issues int) error

	CreateReview(ctx context.Context, review *CodeReview) error
	UpdateReview(ctx context.Context, review *CodeReview) error
	// GetReview accepts a numeric id or a UUID and loads the comments
	GetReview(ctx context.Context, id string) (*CodeReview, error)
	AddComments(ctx context.Context, reviewID uint, comments []ReviewComment) error
	// CompleteReview writes the comments and the completed review row in one
	// transaction, so a review is never completed without its comments.
	CompleteReview(ctx context.Context, review *CodeReview, comments []ReviewComment) error

	Close() error
}

// GormStore implements Store on PostgreSQL or SQLite
type GormStore struct {
	db *gorm.DB
}

// Open connects using the DSN scheme to pick the driver and migrates the schema.
// postgres:// and postgresql:// use PostgreSQL; anything else is a SQLite path or URI.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*GormStore, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithPrefix("storage")

	var dialector gorm.Dialector
	if cfg.IsPostgres() {
		dialector = postgres.Open(cfg.DSN)
	} else {
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, errors.StorageError("open", err)
		}
		dialector = sqlite.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(log, cfg.LogQueries),
	})
	if err != nil {
		return nil, errors.StorageError("open", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.StorageError("open", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.AutoMigrate(&Repository{}, &CodeReview{}, &ReviewComment{}); err != nil {
		return nil, errors.StorageError("migrate", err)
	}

	log.Debug("Database ready (driver: %s)", dialector.Name())
	return &GormStore{db: db}, nil
}

func ensureSQLiteDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0750)
}

// printfWriter routes gorm's logger into ours
type printfWriter struct {
	log *logger.Logger
}

func (w printfWriter) Printf(format string, args ...interface{}) {
	w.log.Debug(format, args...)
}

func newGormLogger(log *logger.Logger, logQueries bool) gormlogger.Interface {
	level := gormlogger.Warn
	if logQueries {
		level = gormlogger.Info
	}
	return gormlogger.New(printfWriter{log: log}, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func notFound(resource string, id interface{}) error {
	return errors.NewError(errors.ErrorTypeNotFound).
		WithMessagef("%s not found", resource).
		WithSeverity(errors.SeverityLow).
		WithCause(ErrNotFound).
		WithContext("resource", resource).
		WithContext("id", id).
		Build()
}

func duplicate(resource, key string) error {
	return errors.NewError(errors.ErrorTypeConflict).
		WithMessagef("%s already exists", resource).
		WithSeverity(errors.SeverityLow).
		WithCause(ErrDuplicate).
		WithContext("resource", resource).
		WithContext("key", key).
		Build()
}

func (s *GormStore) CreateRepository(ctx context.Context, repo *Repository) error {
	if _, err := s.GetRepositoryByFullName(ctx, repo.FullName); err == nil {
		return duplicate("repository", repo.FullName)
	} else if !stderrors.Is(err, ErrNotFound) {
		return err
	}

	if err := s.db.WithContext(ctx).Create(repo).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return duplicate("repository", repo.FullName)
		}
		return errors.StorageError("create repository", err)
	}
	return nil
}

func (s *GormStore) ListRepositories(ctx context.Context) ([]Repository, error) {
	var repos []Repository
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&repos).Error; err != nil {
		return nil, errors.StorageError("list repositories", err)
	}
	return repos, nil
}

func (s *GormStore) GetRepository(ctx context.Context, id uint) (*Repository, error) {
	var repo Repository
	if err := s.db.WithContext(ctx).First(&repo, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("repository", id)
		}
		return nil, errors.StorageError("get repository", err)
	}
	return &repo, nil
}

func (s *GormStore) GetRepositoryByFullName(ctx context.Context, fullName string) (*Repository, error) {
	var repo Repository
	if err := s.db.WithContext(ctx).Where("full_name = ?", fullName).First(&repo).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("repository", fullName)
		}
		return nil, errors.StorageError("get repository", err)
	}
	return &repo, nil
}

// RecordRepositoryReview bumps the review and issue counters atomically
func (s *GormStore) RecordRepositoryReview(ctx context.Context, id uint, issues int) error {
	result := s.db.WithContext(ctx).Model(&Repository{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_reviews":      gorm.Expr("total_reviews + 1"),
		"total_issues_found": gorm.Expr("total_issues_found + ?", issues),
	})
	if result.Error != nil {
		return errors.StorageError("update repository stats", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("repository", id)
	}
	return nil
}

func (s *GormStore) CreateReview(ctx context.Context, review *CodeReview) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error; err != nil {
		return errors.StorageError("create review", err)
	}
	return nil
}

// UpdateReview saves the review row; comments are written with AddComments
func (s *GormStore) UpdateReview(ctx context.Context, review *CodeReview) error {
	if review.ID == 0 {
		return errors.ValidationError("review has no id")
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(review).Error; err != nil {
		return errors.StorageError("update review", err)
	}
	return nil
}

func (s *GormStore) GetReview(ctx context.Context, id string) (*CodeReview, error) {
	query := s.db.WithContext(ctx).Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})

	if _, err := uuid.Parse(id); err == nil {
		query = query.Where("uuid = ?", id)
	} else if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		query = query.Where("id = ?", n)
	} else {
		return nil, errors.ValidationError("invalid review id: " + id)
	}

	var review CodeReview
	if err := query.First(&review).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("review", id)
		}
		return nil, errors.StorageError("get review", err)
	}
	return &review, nil
}

func (s *GormStore) AddComments(ctx context.Context, reviewID uint, comments []ReviewComment) error {
	if len(comments) == 0 {
		return nil
	}
	for i := range comments {
		comments[i].ReviewID = reviewID
	}
	if err := s.db.WithContext(ctx).CreateInBatches(comments, 100).Error; err != nil {
		return errors.StorageError("add comments", err)
	}
	return nil
}

func (s *GormStore) CompleteReview(ctx context.Context, review *CodeReview, comments []ReviewComment) error {
	if review.ID == 0 {
		return errors.ValidationError("review has no id")
	}
	for i := range comments {
		comments[i].ReviewID = review.ID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(comments) > 0 {
			if err := tx.CreateInBatches(comments, 100).Error; err != nil {
				return err
			}
		}
		review.Status = StatusCompleted
		return tx.Omit(clause.Associations).Save(review).Error
	})
	if err != nil {
		return errors.StorageError("complete review", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
