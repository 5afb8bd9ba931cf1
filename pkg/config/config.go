package config

import "os"

type Config struct {
	Port            string
	Env             string
	PostgresConnStr string
	MongoURI        string
	MongoDBName     string
	RedisURL        string
	JWTSecret       string
	MediaUploadURL  string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDBName:     getEnv("MONGO_DBNAME", "vibely"),
		RedisURL:        getEnv("REDIS_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", "supersecretjwtkey"),
		MediaUploadURL:  getEnv("MEDIA_UPLOAD_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
