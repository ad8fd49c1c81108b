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

	"github.com/tomoncle/dbclient/types"
	"github.com/uptrace/bun"
)

// Reader defines the read operations of a model delegate.
type Reader[T any] interface {
	// FindUnique returns the row with the given id, or nil when there is none.
	FindUnique(ctx context.Context, id any) (*T, error)

	// FindUniqueOrThrow is FindUnique but fails with an error wrapping
	// sql.ErrNoRows when the row does not exist.
	FindUniqueOrThrow(ctx context.Context, id any) (*T, error)

	// FindFirst returns the first row matching args, or nil.
	FindFirst(ctx context.Context, args *types.FindManyArgs) (*T, error)

	FindMany(ctx context.Context, args *types.FindManyArgs) ([]*T, error)

	Count(ctx context.Context, where *types.Filter) (int, error)

	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Writer defines the write operations of a model delegate.
type Writer[T any] interface {
	Create(ctx context.Context, entity ...*T) error

	// Upsert inserts entities, updating fields when a row with the same
	// conflictKeys already exists. conflictKeys defaults to the id column.
	Upsert(ctx context.Context, fields []string, conflictKeys []string, entity ...*T) error

	// Update writes every column of entity, matched by primary key.
	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, id any) error

	// DeleteMany removes the rows matching where; a nil filter removes every row.
	DeleteMany(ctx context.Context, where *types.Filter) (int64, error)
}

// Delegate is the data access handle of one model. It runs against a
// database or, after WithTx, against a transaction.
type Delegate[T any] interface {
	Reader[T]
	Writer[T]
	WithTx(tx bun.Tx) Delegate[T]
	NewSelect() *bun.SelectQuery
}
