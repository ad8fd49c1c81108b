// Package repository provides generic per-model delegates built on Bun for
// lookups, filtered listing, counting, pagination, writes and upserts.
package repository
