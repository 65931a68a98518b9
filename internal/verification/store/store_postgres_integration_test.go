//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"realtyvest/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	contractSuite
	pg *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	pgStore := NewPostgres(s.pg.DB)
	s.Require().NoError(pgStore.Migrate(s.ctx))
	// Migrate is idempotent.
	s.Require().NoError(pgStore.Migrate(s.ctx))
	s.store = pgStore
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.ExecContext(s.ctx, `TRUNCATE verification_records CASCADE`)
	s.Require().NoError(err)
}
