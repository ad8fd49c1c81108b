/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dbclient

import (
	"context"

	"github.com/tomoncle/dbclient/repository"
	"github.com/tomoncle/dbclient/types"
	"github.com/uptrace/bun"
)

// Model returns the delegate of model T bound to the process-wide client.
// The client is resolved on first use; if it cannot be built every call
// returns the initialization error.
func Model[T any]() repository.Delegate[T] {
	return ModelOf[T](defaultProvider)
}

// ModelOf is Model for an explicit provider.
func ModelOf[T any](p *Provider) repository.Delegate[T] {
	return &lazyDelegate[T]{provider: p}
}

type lazyDelegate[T any] struct {
	provider *Provider
}

// delegate binds to the client's current *bun.DB on every call, so a
// reconnect by the health check is picked up.
func (s *lazyDelegate[T]) delegate() (repository.Delegate[T], error) {
	client, err := s.provider.Client()
	if err != nil {
		return nil, err
	}
	db := client.DB()
	if db == nil {
		return nil, errNotConnected
	}
	return repository.NewDelegate[T](db), nil
}

func (s *lazyDelegate[T]) FindUnique(ctx context.Context, id any) (*T, error) {
	d, err := s.delegate()
	if err != nil {
		return nil, err
	}
	return d.FindUnique(ctx, id)
}

func (s *lazyDelegate[T]) FindUniqueOrThrow(ctx context.Context, id any) (*T, error) {
	d, err := s.delegate()
	if err != nil {
		return nil, err
	}
	return d.FindUniqueOrThrow(ctx, id)
}

func (s *lazyDelegate[T]) FindFirst(ctx context.Context, args *types.FindManyArgs) (*T, error) {
	d, err := s.delegate()
	if err != nil {
		return nil, err
	}
	return d.FindFirst(ctx, args)
}

func (s *lazyDelegate[T]) FindMany(ctx context.Context, args *types.FindManyArgs) ([]*T, error) {
	d, err := s.delegate()
	if err != nil {
		return nil, err
	}
	return d.FindMany(ctx, args)
}

func (s *lazyDelegate[T]) Count(ctx context.Context, where *types.Filter) (int, error) {
	d, err := s.delegate()
	if err != nil {
		return 0, err
	}
	return d.Count(ctx, where)
}

func (s *lazyDelegate[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	d, err := s.delegate()
	if err != nil {
		return nil, err
	}
	return d.Page(ctx, page)
}

func (s *lazyDelegate[T]) Create(ctx context.Context, entity ...*T) error {
	d, err := s.delegate()
	if err != nil {
		return err
	}
	return d.Create(ctx, entity...)
}

func (s *lazyDelegate[T]) Upsert(ctx context.Context, fields []string, conflictKeys []string, entity ...*T) error {
	d, err := s.delegate()
	if err != nil {
		return err
	}
	return d.Upsert(ctx, fields, conflictKeys, entity...)
}

func (s *lazyDelegate[T]) Update(ctx context.Context, entity *T) error {
	d, err := s.delegate()
	if err != nil {
		return err
	}
	return d.Update(ctx, entity)
}

func (s *lazyDelegate[T]) Delete(ctx context.Context, id any) error {
	d, err := s.delegate()
	if err != nil {
		return err
	}
	return d.Delete(ctx, id)
}

func (s *lazyDelegate[T]) DeleteMany(ctx context.Context, where *types.Filter) (int64, error) {
	d, err := s.delegate()
	if err != nil {
		return 0, err
	}
	return d.DeleteMany(ctx, where)
}

// WithTx binds to tx directly; no client lookup is needed.
func (s *lazyDelegate[T]) WithTx(tx bun.Tx) repository.Delegate[T] {
	return repository.NewDelegate[T](tx)
}

// NewSelect returns nil when the client cannot be built.
func (s *lazyDelegate[T]) NewSelect() *bun.SelectQuery {
	d, err := s.delegate()
	if err != nil {
		return nil
	}
	return d.NewSelect()
}
