package main

// store.go owns the connection pool and every query the handlers run

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	listSkillsSQL    = "SELECT * FROM skills ORDER BY id DESC"
	deleteSkillSQL   = "DELETE FROM skills WHERE id = ?"
	listProjectsSQL  = "SELECT * FROM projects ORDER BY id DESC"
	deleteProjectSQL = "DELETE FROM projects WHERE id = ?"
)

// Store is the repository access layer. It is built once at startup and
// shared by all handlers; the pool lives until Close.
type Store struct {
	db *gorm.DB
}

func OpenStore(cfg *Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		dsn := cfg.DBPath
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dialector = sqlite.Open(sqliteDSN(dsn))
	}
	return openStore(dialector, cfg.DBMaxConns)
}

// sqliteDSN adds a busy timeout and makes transactions take the write lock at
// BEGIN. A deferred transaction that reads and then writes can fail with
// "database is locked" without waiting when another one does the same.
func sqliteDSN(path string) string {
	var params []string
	if !strings.Contains(path, "_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}
	if !strings.Contains(path, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func openStore(dialector gorm.Dialector, maxConns int) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

// Migrate creates or updates the content and user tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&HomeSection{}, &AboutSection{}, &Contacts{}, &Skill{}, &Project{}, &User{})
}

// SeedAdmin creates the login account once. With no credentials configured it
// only reports whether an account exists.
func (s *Store) SeedAdmin(ctx context.Context, email, password string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		slog.Warn("no user exists; set ADMIN_EMAIL and ADMIN_PASSWORD to create one")
		return nil
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.CreateUser(ctx, email, hashed); err != nil {
		return err
	}
	slog.Info("seeded admin user", "email", email)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Execute runs a write statement. Caller input must only ever be passed in args.
func (s *Store) Execute(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	res := s.db.WithContext(ctx).Exec(statement, args...)
	return res.RowsAffected, res.Error
}

// Query runs a read statement and scans the rows into dest.
func (s *Store) Query(ctx context.Context, dest interface{}, statement string, args ...interface{}) error {
	return s.db.WithContext(ctx).Raw(statement, args...).Scan(dest).Error
}

// Singletons

type singletonRow interface {
	TableName() string
	setKey(id uint)
}

// saveSingleton writes row as the table's only row. The existing row keeps its
// id; an empty table gets singletonKey. The write is a single upsert on id, so
// two first saves racing each other end up on the same row.
func (s *Store) saveSingleton(ctx context.Context, row singletonRow, set clause.Set) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var key uint
		err := tx.Table(row.TableName()).Select("id").Order("id").Limit(1).Scan(&key).Error
		if err != nil {
			return fmt.Errorf("read %s: %w", row.TableName(), err)
		}
		if key == 0 {
			key = singletonKey
		}
		row.setKey(key)

		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: set,
		}).Create(row).Error
		if err != nil {
			return fmt.Errorf("save %s: %w", row.TableName(), err)
		}
		return nil
	})
}

// getSingleton returns nil when the section has never been saved.
func getSingleton[T any](ctx context.Context, db *gorm.DB) (*T, error) {
	var row T
	err := db.WithContext(ctx).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// keepIfNull keeps the stored value of column when the new value is NULL.
func keepIfNull(table, column string) clause.Assignment {
	return clause.Assignment{
		Column: clause.Column{Name: column},
		Value:  gorm.Expr(fmt.Sprintf("COALESCE(excluded.%s, %s.%s)", column, table, column)),
	}
}

func (s *Store) GetHome(ctx context.Context) (*HomeSection, error) {
	return getSingleton[HomeSection](ctx, s.db)
}

// SaveHome stores the home section. A nil ProfileImage keeps the current image.
func (s *Store) SaveHome(ctx context.Context, home HomeSection) error {
	set := clause.AssignmentColumns([]string{"name", "description", "updated_at"})
	set = append(set, keepIfNull(home.TableName(), "profile_image"))
	return s.saveSingleton(ctx, &home, set)
}

func (s *Store) GetAbout(ctx context.Context) (*AboutSection, error) {
	return getSingleton[AboutSection](ctx, s.db)
}

func (s *Store) SaveAbout(ctx context.Context, about AboutSection) error {
	return s.saveSingleton(ctx, &about, clause.AssignmentColumns([]string{"about_text", "updated_at"}))
}

func (s *Store) GetContacts(ctx context.Context) (*Contacts, error) {
	return getSingleton[Contacts](ctx, s.db)
}

// SaveContacts overwrites all three links; nil clears a link.
func (s *Store) SaveContacts(ctx context.Context, contacts Contacts) error {
	return s.saveSingleton(ctx, &contacts, clause.AssignmentColumns([]string{"whatsapp", "instagram", "email", "updated_at"}))
}

// Collections

func (s *Store) ListSkills(ctx context.Context) ([]Skill, error) {
	skills := []Skill{}
	if err := s.Query(ctx, &skills, listSkillsSQL); err != nil {
		return nil, err
	}
	return skills, nil
}

func (s *Store) GetSkill(ctx context.Context, id uint) (*Skill, error) {
	var skill Skill
	if err := s.db.WithContext(ctx).First(&skill, id).Error; err != nil {
		return nil, err
	}
	return &skill, nil
}

func (s *Store) CreateSkill(ctx context.Context, name string) (*Skill, error) {
	skill := Skill{SkillName: name}
	if err := s.db.WithContext(ctx).Create(&skill).Error; err != nil {
		return nil, err
	}
	return &skill, nil
}

// DeleteSkill succeeds whether or not the id exists.
func (s *Store) DeleteSkill(ctx context.Context, id uint) error {
	_, err := s.Execute(ctx, deleteSkillSQL, id)
	return err
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	projects := []Project{}
	if err := s.Query(ctx, &projects, listProjectsSQL); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id uint) (*Project, error) {
	var project Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) CreateProject(ctx context.Context, project Project) (*Project, error) {
	project.ID = 0
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject succeeds whether or not the id exists. The image file is left in place.
func (s *Store) DeleteProject(ctx context.Context, id uint) error {
	_, err := s.Execute(ctx, deleteProjectSQL, id)
	return err
}

// Users

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) error {
	return s.db.WithContext(ctx).Create(&User{Email: email, Password: passwordHash}).Error
}
