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

package types

// Filter describes a WHERE clause and its argument values, e.g.
// NewFilter("email = ?", "a@b.c").
type Filter struct {
	Schema string
	Args   []interface{}
}

// NewFilter creates a filter from a clause with ? placeholders.
func NewFilter(schema string, args ...interface{}) *Filter {
	return &Filter{schema, args}
}

// FindManyArgs selects, orders and windows the rows returned by FindMany.
// Zero Take means no limit.
type FindManyArgs struct {
	Where   *Filter
	OrderBy []string // "id ASC", "name DESC"
	Skip    int
	Take    int
}

// PageRequest describes a page number, a page size, an optional filter and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *Filter
	orders   []string
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = 10
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *Filter {
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// NewPageRequest constructs a PageRequest; filter and orders may be nil.
func NewPageRequest(page int, pageSize int, filter *Filter, orders ...string) *PageRequest {
	return &PageRequest{page, pageSize, filter, orders}
}

// Pagination holds one page of items along with pagination metadata.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Items    []*T `json:"items"`
}

// Pages returns the number of pages needed for Total items.
func (p *Pagination[T]) Pages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// NewPagination constructs an empty pagination container.
func NewPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}
