// Package storage — файловое хранилище для загружаемых изображений
// (фотографии профиля врачей). Сервисный слой работает только с этим
// интерфейсом, конкретная реализация подключается в main.
package storage

import (
	"context"
	"time"
)

// FileStorage хранит файлы по имени объекта и возвращает публичный URL,
// по которому файл можно получить обратно.
type FileStorage interface {
	// UploadFile сохраняет данные под указанным именем объекта и
	// возвращает полный URL файла.
	UploadFile(ctx context.Context, data []byte, filename string) (string, error)

	// DeleteFile удаляет файл по его полному URL. Пустой URL — no-op.
	DeleteFile(ctx context.Context, fileURL string) error

	GetFile(ctx context.Context, fileURL string) ([]byte, error)

	GetPresignedURL(ctx context.Context, fileURL string, expiry time.Duration) (string, error)
}
