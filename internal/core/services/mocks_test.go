package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"telegram-post-parser/internal/domain"
)

// mockSender записывает все отправки для проверки в тестах.
type mockSender struct {
	fileCalls []sentFile
	textCalls []sentText

	fileErr error
	textErr error
}

type sentFile struct {
	target  string
	path    string
	caption string
}

type sentText struct {
	target string
	text   string
}

func (m *mockSender) SendFile(_ context.Context, target, path, caption string) error {
	m.fileCalls = append(m.fileCalls, sentFile{target: target, path: path, caption: caption})
	return m.fileErr
}

func (m *mockSender) SendText(_ context.Context, target, text string) error {
	m.textCalls = append(m.textCalls, sentText{target: target, text: text})
	return m.textErr
}

// mockFetcher имитирует загрузку: создаёт файл с заданным содержимым
// либо возвращает ошибку. Считает обращения.
type mockFetcher struct {
	calls   int
	err     error
	content []byte
}

func (m *mockFetcher) Fetch(_ context.Context, dest string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, m.content, 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

// mockExtractor и mockClassifier возвращают заранее заданные значения,
// чтобы тесты агрегатора не зависели от настоящих сервисов.
type mockExtractor struct {
	structured domain.EntityBuckets
	regex      domain.EntityBuckets
}

func (m *mockExtractor) ExtractStructured(string, []domain.RawAnnotation, domain.OffsetEncoding) domain.EntityBuckets {
	return m.structured
}

func (m *mockExtractor) ExtractRegex(string) domain.EntityBuckets {
	return m.regex
}

func (m *mockExtractor) Merge(structured, regex []string) []string {
	out := append([]string{}, structured...)
	return append(out, regex...)
}

type mockClassifier struct {
	class domain.MediaClass
}

func (m *mockClassifier) Classify(domain.MediaDescriptor, int) domain.MediaClass {
	return m.class
}

var errBoom = errors.New("boom")
