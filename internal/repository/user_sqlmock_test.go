package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB opens gorm over a sqlmock connection with the postgres dialect,
// for asserting how read paths react to driver-level outcomes.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByIDDriverOutcomes(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username", "email", "active"}).
			AddRow(id.String(), "ada", "ada@example.com", true)
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id =`).
			WillReturnRows(rows)

		user, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "ada", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id =`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.GetByID(ctx, id)
		assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Driver Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id =`).
			WillReturnError(errors.New("connection timeout"))

		_, err := repo.GetByID(ctx, id)
		assert.Equal(t, "INTERNAL_ERROR", appErrCode(t, err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_LookupMissesAreNotErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE`).
		WillReturnError(gorm.ErrRecordNotFound)

	user, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}
