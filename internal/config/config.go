package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the agent process.
// All values come from env (or an env-file loaded by the process runner) plus literal defaults.
// It is built once at startup and passed explicitly; nothing reads raw env vars after Load.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LiveKit  LiveKitConfig
	Actions  ActionsConfig
	Runtime  RuntimeConfig
	Outbound OutboundConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

// AuthConfig covers the bearer tokens the voice runtime presents on callbacks.
// AccessTokenTTL bounds the room-scoped token handed out per job, so it must outlive a call.
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type LiveKitConfig struct {
	URL       string
	APIKey    string
	APISecret string

	// OutboundTrunkID is the SIP trunk used for every dial-out.
	OutboundTrunkID string
}

// ActionsConfig points at the backend edge functions (agent-actions, end-call, ...).
type ActionsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// RuntimeConfig points at the host voice runtime's control API.
type RuntimeConfig struct {
	URL    string
	APIKey string
}

type OutboundConfig struct {
	ConcurrencyLimit int
	SlotTTL          time.Duration
	JobClaimTTL      time.Duration
}

const (
	defaultActionsTimeout  = 30 * time.Second
	defaultAccessTokenTTL  = 2 * time.Hour
	defaultOutboundLimit   = 10
	defaultOutboundSlotTTL = 15 * time.Minute
	defaultJobClaimTTL     = 2 * time.Hour
	defaultNonProdSSLMode  = "disable"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	{
		d, err := optionalDuration("JWT_ACCESS_TTL")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Auth.AccessTokenTTL = d
	}

	c.LiveKit.URL = strings.TrimSpace(os.Getenv("LIVEKIT_URL"))
	c.LiveKit.APIKey = strings.TrimSpace(os.Getenv("LIVEKIT_API_KEY"))
	c.LiveKit.APISecret = os.Getenv("LIVEKIT_API_SECRET")
	c.LiveKit.OutboundTrunkID = strings.TrimSpace(os.Getenv("SIP_OUTBOUND_TRUNK_ID"))

	c.Actions.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("ACTIONS_BASE_URL")), "/")
	c.Actions.APIKey = os.Getenv("ACTIONS_API_KEY")
	{
		d, err := optionalDuration("ACTIONS_TIMEOUT")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Actions.Timeout = d
	}

	c.Runtime.URL = strings.TrimRight(strings.TrimSpace(os.Getenv("RUNTIME_URL")), "/")
	c.Runtime.APIKey = os.Getenv("RUNTIME_API_KEY")

	{
		n, err := optionalInt("OUTBOUND_CONCURRENCY_LIMIT")
		if err == nil && n < 0 {
			err = fmt.Errorf("OUTBOUND_CONCURRENCY_LIMIT must not be negative, got %d", n)
		}
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Outbound.ConcurrencyLimit = n
	}
	{
		d, err := optionalDuration("OUTBOUND_SLOT_TTL")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Outbound.SlotTTL = d
	}
	{
		d, err := optionalDuration("JOB_CLAIM_TTL")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Outbound.JobClaimTTL = d
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// applyDefaults fills optional values. Production must still set DB_SSLMODE explicitly.
func (c *Config) applyDefaults() {
	if c.DB.SSLMode == "" && !c.IsProduction() {
		c.DB.SSLMode = defaultNonProdSSLMode
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = defaultAccessTokenTTL
	}
	if c.Actions.Timeout <= 0 {
		c.Actions.Timeout = defaultActionsTimeout
	}
	if c.Outbound.ConcurrencyLimit <= 0 {
		c.Outbound.ConcurrencyLimit = defaultOutboundLimit
	}
	if c.Outbound.SlotTTL <= 0 {
		c.Outbound.SlotTTL = defaultOutboundSlotTTL
	}
	if c.Outbound.JobClaimTTL <= 0 {
		c.Outbound.JobClaimTTL = defaultJobClaimTTL
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		errs = append(errs, errors.New("DB_SSLMODE is required in production"))
	} else if !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	if err := validateURL("LIVEKIT_URL", c.LiveKit.URL); err != nil {
		errs = append(errs, err)
	}
	if c.LiveKit.APIKey == "" {
		errs = append(errs, errors.New("LIVEKIT_API_KEY is required"))
	}
	if c.LiveKit.APISecret == "" {
		errs = append(errs, errors.New("LIVEKIT_API_SECRET is required"))
	}
	if c.LiveKit.OutboundTrunkID == "" {
		errs = append(errs, errors.New("SIP_OUTBOUND_TRUNK_ID is required"))
	}

	if err := validateURL("ACTIONS_BASE_URL", c.Actions.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Actions.APIKey == "" {
		errs = append(errs, errors.New("ACTIONS_API_KEY is required"))
	}
	if err := validateURL("RUNTIME_URL", c.Runtime.URL); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optionalDuration returns 0 when unset; defaults are applied afterwards.
func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s or 15m, got %q", key, v)
	}
	return d, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func validateURL(key, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, v)
	}
	return nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
