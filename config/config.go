// Package config loads runtime settings from the environment.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config holds every setting the server reads from the environment
type Config struct {
	Port         string        `envconfig:"PORT" default:"8000"`
	MongoURI     string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB      string        `envconfig:"MONGO_DATABASE" default:"marketplace"`
	Transactions bool          `envconfig:"MONGO_TRANSACTIONS" default:"false"`
	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL       time.Duration `envconfig:"JWT_TTL" default:"24h"`

	Geofence Geofence `envconfig:"GEOFENCE"`

	CheckoutRequireLocation bool    `envconfig:"CHECKOUT_REQUIRE_LOCATION" default:"true"`
	OTPMaxAttempts          int     `envconfig:"OTP_MAX_ATTEMPTS" default:"5"`
	CommissionRate          float64 `envconfig:"COMMISSION_RATE" default:"0.10"`

	EmailProvider    string `envconfig:"EMAIL_PROVIDER" default:"none"`
	PostmarkAPIToken string `envconfig:"POSTMARK_API_TOKEN"`
	SendgridAPIKey   string `envconfig:"SENDGRID_API_KEY"`
	EmailSender      string `envconfig:"EMAIL_SENDER" default:"no-reply@marketplace.local"`

	ExpoPushURL     string `envconfig:"EXPO_PUSH_URL" default:"https://exp.host/--/api/v2/push/send"`
	ExpoAccessToken string `envconfig:"EXPO_ACCESS_TOKEN"`

	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET"`

	NotifyWorkers   int `envconfig:"NOTIFY_WORKERS" default:"2"`
	NotifyQueueSize int `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`

	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"json"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

// Geofence describes the platform service area. Keys are read as GEOFENCE_<name>.
type Geofence struct {
	CenterLat    float64 `envconfig:"CENTER_LAT" default:"12.4962"`
	CenterLng    float64 `envconfig:"CENTER_LNG" default:"78.5696"`
	MaxRadiusKm  float64 `envconfig:"MAX_RADIUS_KM" default:"5"`
	BoxOffsetDeg float64 `envconfig:"BOX_OFFSET_DEG" default:"0.045"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found. Proceeding with environment variables.")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return errors.Errorf("COMMISSION_RATE must be in [0,1), got %v", c.CommissionRate)
	}
	if c.Geofence.MaxRadiusKm <= 0 {
		return errors.Errorf("GEOFENCE_MAX_RADIUS_KM must be positive, got %v", c.Geofence.MaxRadiusKm)
	}
	if c.Geofence.BoxOffsetDeg <= 0 {
		return errors.Errorf("GEOFENCE_BOX_OFFSET_DEG must be positive, got %v", c.Geofence.BoxOffsetDeg)
	}
	if c.OTPMaxAttempts < 1 {
		return errors.Errorf("OTP_MAX_ATTEMPTS must be at least 1, got %d", c.OTPMaxAttempts)
	}
	if c.NotifyWorkers < 1 || c.NotifyQueueSize < 1 {
		return errors.New("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be positive")
	}
	switch c.EmailProvider {
	case "none", "postmark", "sendgrid":
	default:
		return errors.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}
	return nil
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the global logger.
func (c *Config) SetupLogging() {
	if c.LogFormat == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
