package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Keys       APIKeys
	Ai         AIConfig
	Retrieval  RetrievalConfig
	Generation GenerationConfig
	Grading    GradingConfig
	Chat       ChatConfig
	Eval       EvalConfig
	Payment    PaymentConfig
	Storage    StorageConfig
	Scheduler  SchedulerConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
	OpenAI       string
	Jina         string
	IngestTopic  string // Watermill topic for corpus ingestion
	GradingTopic string // Watermill topic for async grading
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "openai", "huggingface"
	LLMModel          string // e.g. "llama3", "gpt-4o-mini"
	JudgeModel        string // Model used by the evaluation judge; empty = LLMModel
}

// RetrievalConfig tunes the hybrid search pipeline. Weights apply to the
// textbook corpus; question-paper retrieval is always vector-only.
type RetrievalConfig struct {
	VectorWeight   float64
	LexicalWeight  float64
	TopK           int
	RelevanceFloor float64
	DedupThreshold float64
	TokenBudget    int
}

type GenerationConfig struct {
	MaxRetries int // Schema-validation retries per question slot
	Workers    int // Concurrent slot generations per paper
}

type GradingConfig struct {
	FullThreshold    float64
	PartialThreshold float64
	PartialFraction  float64
	AmbiguousLow     float64
	AmbiguousHigh    float64
}

type ChatConfig struct {
	HistoryWindow  int // Messages of history included per turn
	RetrievalTopK  int
	FreeDailyLimit int // Fallback daily quota when no plan row is found
}

type EvalConfig struct {
	SamplesPerPart int
	RunTimeoutMin  int
	Workers        int
}

type PaymentConfig struct {
	MidtransServerKey string
	MidtransClientKey string
	MidtransEnv       string // "sandbox" or "production"
}

type StorageConfig struct {
	S3Bucket    string
	S3Region    string
	S3Endpoint  string // Optional, for MinIO-style deployments
	UploadsPath string // Local fallback when S3 is not configured
}

type SchedulerConfig struct {
	AttemptMaxMinutes int    // Open attempts older than this are auto-submitted
	NightlyEvalCron   string // Cron spec for the nightly chatbot audit; empty disables it
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "ExamCraft"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			IngestTopic:  getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
			GradingTopic: getEnv("GRADE_ATTEMPT_TOPIC_NAME", "GRADE_ATTEMPT"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			JudgeModel:        getEnv("JUDGE_MODEL", ""),
		},
		Retrieval: RetrievalConfig{
			VectorWeight:   getEnvAsFloat("RETRIEVAL_VECTOR_WEIGHT", 0.5),
			LexicalWeight:  getEnvAsFloat("RETRIEVAL_LEXICAL_WEIGHT", 0.5),
			TopK:           getEnvAsInt("RETRIEVAL_TOP_K", 10),
			RelevanceFloor: getEnvAsFloat("RETRIEVAL_RELEVANCE_FLOOR", 0.35),
			DedupThreshold: getEnvAsFloat("RETRIEVAL_DEDUP_THRESHOLD", 0.92),
			TokenBudget:    getEnvAsInt("RETRIEVAL_TOKEN_BUDGET", 3000),
		},
		Generation: GenerationConfig{
			MaxRetries: getEnvAsInt("GENERATION_MAX_RETRIES", 3),
			Workers:    getEnvAsInt("GENERATION_WORKERS", 4),
		},
		Grading: GradingConfig{
			FullThreshold:    getEnvAsFloat("GRADING_FULL_THRESHOLD", 0.85),
			PartialThreshold: getEnvAsFloat("GRADING_PARTIAL_THRESHOLD", 0.60),
			PartialFraction:  getEnvAsFloat("GRADING_PARTIAL_FRACTION", 0.60),
			AmbiguousLow:     getEnvAsFloat("GRADING_AMBIGUOUS_LOW", 0.55),
			AmbiguousHigh:    getEnvAsFloat("GRADING_AMBIGUOUS_HIGH", 0.65),
		},
		Chat: ChatConfig{
			HistoryWindow:  getEnvAsInt("CHAT_HISTORY_WINDOW", 10),
			RetrievalTopK:  getEnvAsInt("CHAT_RETRIEVAL_TOP_K", 5),
			FreeDailyLimit: getEnvAsInt("CHAT_FREE_DAILY_LIMIT", 20),
		},
		Eval: EvalConfig{
			SamplesPerPart: getEnvAsInt("EVAL_SAMPLES_PER_PART", 3),
			RunTimeoutMin:  getEnvAsInt("EVAL_RUN_TIMEOUT_MINUTES", 20),
			Workers:        getEnvAsInt("EVAL_WORKERS", 4),
		},
		Payment: PaymentConfig{
			MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransClientKey: getEnv("MIDTRANS_CLIENT_KEY", ""),
			MidtransEnv:       getEnv("MIDTRANS_ENV", "sandbox"),
		},
		Storage: StorageConfig{
			S3Bucket:    getEnv("S3_BUCKET", ""),
			S3Region:    getEnv("S3_REGION", "ap-south-1"),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			UploadsPath: getEnv("UPLOADS_PATH", "./uploads"),
		},
		Scheduler: SchedulerConfig{
			AttemptMaxMinutes: getEnvAsInt("ATTEMPT_MAX_MINUTES", 180),
			NightlyEvalCron:   getEnv("NIGHTLY_EVAL_CRON", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
