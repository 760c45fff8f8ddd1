package enums

// Keys the session is persisted under. Only the session store may touch them.
const (
	StorageKeyToken = "access_token"
	StorageKeyUser  = "user_data"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverFile   = "file"
	StorageDriverRedis  = "redis"
)
