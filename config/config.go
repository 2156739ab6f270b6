package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTAccessSecret   string
	JWTAccessTTLHours int

	// ✅ Redis Config (real-time group channels)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ✅ Kafka Config (async notification fan-out)
	KafkaBrokers string
	KafkaTopic   string

	// ✅ FCM Config
	FCMCredentialsPath string // Path to Firebase service account JSON
	FCMProjectID       string // Firebase Project ID (optional, can be in JSON)

	// ✅ Gate geofence, injected into the location verifier
	GateLatitude    float64
	GateLongitude   float64
	GateRadiusMeter float64

	// ✅ Matching policy
	AutoMatchMemberCap int
}

// Load reads environment variables and returns a Config object
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	accessTTL, _ := strconv.Atoi(os.Getenv("JWT_ACCESS_TTL_HOURS"))
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	autoMatchCap, _ := strconv.Atoi(os.Getenv("AUTO_MATCH_MEMBER_CAP"))
	if autoMatchCap <= 0 {
		autoMatchCap = 5
	}

	kafkaTopic := os.Getenv("KAFKA_NOTIFICATION_TOPIC")
	if kafkaTopic == "" {
		kafkaTopic = "outing-notifications"
	}

	return &Config{
		Port: os.Getenv("PORT"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTAccessSecret:   os.Getenv("JWT_ACCESS_SECRET"),
		JWTAccessTTLHours: accessTTL,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   kafkaTopic,

		FCMCredentialsPath: os.Getenv("FCM_CREDENTIALS_PATH"),
		FCMProjectID:       os.Getenv("FCM_PROJECT_ID"),

		GateLatitude:    parseFloatEnv("GATE_LATITUDE", 28.123456),
		GateLongitude:   parseFloatEnv("GATE_LONGITUDE", 77.123456),
		GateRadiusMeter: parseFloatEnv("GATE_RADIUS", 100),

		AutoMatchMemberCap: autoMatchCap,
	}
}

func parseFloatEnv(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}
