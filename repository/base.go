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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/dbclient/database"
	"github.com/tomoncle/dbclient/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

type delegate[T any] struct {
	db bun.IDB
}

// NewDelegate returns a model delegate running against db, which may be a
// *bun.DB, a bun.Tx or a bun.Conn.
func NewDelegate[T any](db bun.IDB) Delegate[T] {
	return &delegate[T]{db: db}
}

func (d *delegate[T]) WithTx(tx bun.Tx) Delegate[T] {
	return &delegate[T]{db: tx}
}

func (d *delegate[T]) NewSelect() *bun.SelectQuery {
	return d.db.NewSelect().Model((*T)(nil))
}

func (d *delegate[T]) FindUnique(ctx context.Context, id any) (*T, error) {
	entity, err := d.FindUniqueOrThrow(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entity, err
}

func (d *delegate[T]) FindUniqueOrThrow(ctx context.Context, id any) (*T, error) {
	var entity T
	err := d.db.NewSelect().Model(&entity).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, database.WrapQueryError(err)
	}
	return &entity, nil
}

func (d *delegate[T]) FindFirst(ctx context.Context, args *types.FindManyArgs) (*T, error) {
	first := types.FindManyArgs{Take: 1}
	if args != nil {
		first = *args
		first.Take = 1
	}
	entities, err := d.FindMany(ctx, &first)
	if err != nil || len(entities) == 0 {
		return nil, err
	}
	return entities[0], nil
}

func (d *delegate[T]) FindMany(ctx context.Context, args *types.FindManyArgs) ([]*T, error) {
	entities := make([]*T, 0)
	query := d.db.NewSelect().Model(&entities)
	if args != nil {
		query = applyFilter(query, args.Where)
		if len(args.OrderBy) > 0 {
			query = query.Order(args.OrderBy...)
		}
		if args.Skip > 0 {
			query = query.Offset(args.Skip)
		}
		if args.Take > 0 {
			query = query.Limit(args.Take)
		}
	}
	if err := query.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, database.WrapQueryError(err)
	}
	return entities, nil
}

func (d *delegate[T]) Count(ctx context.Context, where *types.Filter) (int, error) {
	n, err := applyFilter(d.db.NewSelect().Model((*T)(nil)), where).Count(ctx)
	return n, database.WrapQueryError(err)
}

func (d *delegate[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewPageRequest(1, 10, nil)
	}
	pagination := types.NewPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := d.Count(ctx, pageRequest.GetFilter())
	if err != nil || total == 0 {
		return pagination, err
	}
	items, err := d.FindMany(ctx, &types.FindManyArgs{
		Where:   pageRequest.GetFilter(),
		OrderBy: pageRequest.GetOrders(),
		Skip:    pageRequest.GetOffset(),
		Take:    pageRequest.GetPageSize(),
	})
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

func (d *delegate[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := append([]*T(nil), entity...)
	_, err := d.db.NewInsert().Model(&entities).Exec(ctx)
	return database.WrapQueryError(err)
}

func (d *delegate[T]) Update(ctx context.Context, entity *T) error {
	_, err := d.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return database.WrapQueryError(err)
}

func (d *delegate[T]) Delete(ctx context.Context, id any) error {
	_, err := d.db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	return database.WrapQueryError(err)
}

func (d *delegate[T]) DeleteMany(ctx context.Context, where *types.Filter) (int64, error) {
	query := d.db.NewDelete().Model((*T)(nil))
	if where == nil || where.Schema == "" {
		query = query.Where("1 = 1")
	} else {
		query = query.Where(where.Schema, where.Args...)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, database.WrapQueryError(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (d *delegate[T]) Upsert(ctx context.Context, fields []string, conflictKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}
	entities := append([]*T(nil), entity...)

	features := d.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return d.upsertOnConflict(ctx, fields, conflictKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return d.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		return d.upsertFallback(ctx, entities)
	}
}

func (d *delegate[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	var sets []string
	for _, field := range fields {
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", field, field))
	}
	_, err := d.db.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")).
		Exec(ctx)
	return database.WrapQueryError(err)
}

func (d *delegate[T]) upsertOnConflict(ctx context.Context, fields []string, conflictKeys []string, entities []*T) error {
	if len(conflictKeys) == 0 {
		conflictKeys = []string{"id"}
	}
	var sets []string
	for _, field := range fields {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", field, field))
	}
	_, err := d.db.NewInsert().
		Model(&entities).
		On("CONFLICT (" + strings.Join(conflictKeys, ", ") + ") DO UPDATE").
		Set(strings.Join(sets, ", ")).
		Exec(ctx)
	return database.WrapQueryError(err)
}

func (d *delegate[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := d.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := d.db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %w", err, database.WrapQueryError(updateErr))
			}
		}
	}
	return nil
}

func applyFilter(query *bun.SelectQuery, where *types.Filter) *bun.SelectQuery {
	if where == nil || where.Schema == "" {
		return query
	}
	return query.Where(where.Schema, where.Args...)
}
