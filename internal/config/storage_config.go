package config

type StorageConfig interface {
	GetRedisURL() string
}

type Storage struct {
	file storageFile
}

var _ StorageConfig = Storage{}

// GetRedisURL accepts redis://... or host:port. Empty keeps everything in memory.
func (s Storage) GetRedisURL() string {
	return pick("REDIS_URL", s.file.RedisURL, "")
}
