package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntityAt(t *testing.T) {
	at := time.Date(2024, 3, 10, 8, 30, 0, 0, time.FixedZone("CET", 3600))
	entity := domain.NewBaseEntityAt(at)

	assert.NotEqual(t, uuid.Nil, entity.ID())
	assert.Equal(t, at.UTC(), entity.CreatedAt())
	assert.Equal(t, time.UTC, entity.CreatedAt().Location())
	assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
}

func TestBaseEntity_Touch(t *testing.T) {
	entity := domain.NewBaseEntityAt(time.Now().Add(-time.Hour))
	original := entity.UpdatedAt()

	entity.Touch()

	assert.True(t, entity.UpdatedAt().After(original))
	assert.True(t, entity.CreatedAt().Equal(original))
}

func TestBaseEntity_Equals(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	entity1 := domain.RehydrateBaseEntity(id, now, now)
	entity2 := domain.RehydrateBaseEntity(id, now, now)
	entity3 := domain.NewBaseEntity()

	assert.True(t, entity1.Equals(&entity2))
	assert.False(t, entity1.Equals(&entity3))
	assert.False(t, entity1.Equals(nil))
}
