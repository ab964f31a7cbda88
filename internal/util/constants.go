package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeImage       = "image/"
	MaxAvatarSize   = 5 << 20
	AvatarDirectory = "avatars"
)

// 缓存键前缀
const (
	CacheKeyQuizList      = "quizzes:list:"
	CacheKeyUserAnalytics = "analytics:user:"
	CacheKeySession       = "user_"
	CacheKeyBlacklist     = "bl_"
)

// gin 上下文键
const (
	ContextUserKey  = "user"
	ContextTokenKey = "token"
)
