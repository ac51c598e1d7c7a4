package repository

import (
	"errors"
	"strings"

	repo "cafeshop/internal/repository"

	"gorm.io/gorm"
)

// gormのエラーをrepositoryのエラーに寄せる
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if isDuplicate(err) {
		return repo.ErrDuplicate
	}
	return err
}

// TranslateErrorが効かないドライバでも拾えるように文言も見る
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, repo.ErrDuplicate) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
