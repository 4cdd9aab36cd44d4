package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	portproject "github.com/alanyang/project-registry/internal/port/project"
)

var _ portproject.Repository = (*Repository)(nil)

const (
	projectKeyPrefix = "registry:project:" // JSON record: registry:project:{id}
	indexKey         = "registry:projects" // sorted set of ids, all scored 0, so ZRANGE is lexicographic
)

// Repository stores each project as a JSON string and keeps an id index for
// ordered enumeration. Records never expire.
type Repository struct {
	client *redis.Client
}

func New(client *redis.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) Create(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("marshal project: %w", err)
	}

	var created *redis.BoolCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, projectKey(p.ID), data, 0)
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: 0, Member: p.ID.String()})
		return nil
	})
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if !created.Val() {
		return domainproject.Project{}, fmt.Errorf("insert project %s: %w", p.ID, domainproject.ErrDuplicateID)
	}
	return p.Clone(), nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domainproject.Project, error) {
	data, err := r.client.Get(ctx, projectKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domainproject.Project{}, fmt.Errorf("get project %s: %w", id, domainproject.ErrNotFound)
	}
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	return decode(data)
}

func (r *Repository) Update(ctx context.Context, p domainproject.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}

	ok, err := r.client.SetXX(ctx, projectKey(p.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if !ok {
		return fmt.Errorf("update project %s: %w", p.ID, domainproject.ErrNotFound)
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]domainproject.Project, error) {
	ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = projectKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]domainproject.Project, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Indexed but the record is gone; nothing deletes records, so skip it.
			continue
		}
		p, err := decode([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("decode project %s: %w", ids[i], err)
		}
		out = append(out, p)
	}
	return out, nil
}

func projectKey(id uuid.UUID) string {
	return projectKeyPrefix + id.String()
}

func decode(data []byte) (domainproject.Project, error) {
	var p domainproject.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return domainproject.Project{}, fmt.Errorf("unmarshal project: %w", err)
	}
	if p.InterestEmails == nil {
		p.InterestEmails = []string{}
	}
	return p, nil
}
