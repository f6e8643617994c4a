package memory

import (
	"context"

	"go-kasir-ws/internal/model"

	"github.com/google/uuid"
)

type actorRepo struct {
	s *Store
}

func (r *actorRepo) Create(ctx context.Context, actor *model.Actor) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.actors {
		if a.Username == actor.Username {
			return model.ErrDuplicate
		}
	}
	if actor.ID == uuid.Nil {
		actor.ID = uuid.New()
	}
	now := s.now()
	actor.CreatedAt, actor.UpdatedAt = now, now
	stored := *actor
	s.actors[actor.ID] = &stored
	return nil
}

func (r *actorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *actorRepo) FindByUsername(ctx context.Context, username string) (*model.Actor, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.actors {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *actorRepo) Update(ctx context.Context, actor *model.Actor) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.actors[actor.ID]; !ok {
		return model.ErrNotFound
	}
	actor.UpdatedAt = s.now()
	stored := *actor
	s.actors[actor.ID] = &stored
	return nil
}
