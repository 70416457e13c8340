package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 条件付き更新で対象行が変わっていた（同時更新）
	ErrConflict = errors.New("conflict")
)
