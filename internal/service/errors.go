package service

import "github.com/nepallicenseprep/likhit-backend/internal/exam"

// Re-exported so handlers can match pool errors from either layer.
var (
	ErrUnknownCategory = exam.ErrUnknownCategory
	ErrNoQuestions     = exam.ErrNoQuestions
)
