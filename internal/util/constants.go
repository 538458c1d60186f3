package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageS3    = "s3"
)

const (
	MimeMarkdown = "text/markdown; charset=utf-8"
	MimeJSON     = "application/json"
)

// 测评题目数量范围
const (
	MinQuestionCount     = 5
	MaxQuestionCount     = 20
	DefaultQuestionCount = 10
)
