package repository

import "errors"

// ErrNotFound запись о подписке или пользователе отсутствует в хранилище.
// Upsert по user_id исключает дубликаты, поэтому других сентинелов нет.
var ErrNotFound = errors.New("record not found")
