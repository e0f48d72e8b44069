package repository

import "errors"

// ErrDuplicate 写入违反唯一约束
var ErrDuplicate = errors.New("记录已存在")
