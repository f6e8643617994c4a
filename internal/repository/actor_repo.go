package repository

import (
	"context"

	"go-kasir-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type actorRepo struct {
	db *gorm.DB
}

func NewActorRepo(db *gorm.DB) ActorRepository {
	return &actorRepo{db}
}

func (r *actorRepo) Create(ctx context.Context, actor *model.Actor) error {
	return mapErr(r.db.WithContext(ctx).Create(actor).Error)
}

func (r *actorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	var actor model.Actor
	if err := r.db.WithContext(ctx).First(&actor, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &actor, nil
}

func (r *actorRepo) FindByUsername(ctx context.Context, username string) (*model.Actor, error) {
	var actor model.Actor
	if err := r.db.WithContext(ctx).First(&actor, "username = ?", username).Error; err != nil {
		return nil, mapErr(err)
	}
	return &actor, nil
}

func (r *actorRepo) Update(ctx context.Context, actor *model.Actor) error {
	return mapErr(r.db.WithContext(ctx).Save(actor).Error)
}
