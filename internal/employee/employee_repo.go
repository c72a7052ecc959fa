package employee

import (
	"context"
	"database/sql"
	"strings"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindByID(ctx context.Context, id int) (*Employee, error)
	// UpdateProfile writes first name, last name and job title only.
	UpdateProfile(ctx context.Context, empl *Employee) (int64, error)
	Delete(ctx context.Context, id int) (int64, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Employee, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

// conn returns a session bound to ctx and, when set, to the caller's
// transaction.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.conn(ctx).Create(empl).Error
}

func (r *repository) FindByID(ctx context.Context, id int) (*Employee, error) {
	var empl Employee
	if err := r.conn(ctx).First(&empl, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) UpdateProfile(ctx context.Context, empl *Employee) (int64, error) {
	res := r.conn(ctx).
		Model(empl).
		Select("first_name", "last_name", "job_title", "updated_at").
		Updates(empl)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id int) (int64, error) {
	res := r.conn(ctx).Delete(&Employee{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *repository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	var total int64
	err := r.conn(ctx).
		Model(&Employee{}).
		Scopes(searchScope(filter.SearchTerm)).
		Count(&total).Error
	return total, err
}

func (r *repository) List(ctx context.Context, filter ListFilter, offset, limit int) ([]Employee, error) {
	var empls []Employee
	err := r.conn(ctx).
		Scopes(searchScope(filter.SearchTerm)).
		Order("last_name ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&empls).Error
	return empls, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchScope matches the term as a case-insensitive substring of first name,
// last name or email. A blank term matches everything.
func searchScope(term string) func(db *gorm.DB) *gorm.DB {
	term = strings.TrimSpace(term)
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(term) + "%"
		return db.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}
}
